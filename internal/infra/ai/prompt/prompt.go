package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

type agentPrompt struct {
	persona string
	focus   string
	schema  string
}

var prompts = map[agents.Type]agentPrompt{
	agents.TypeStructure: {
		persona: "a technical writer who organizes conversations into documents",
		focus:   "Propose document sections, group the discussed topics, and note structural insights.",
		schema: `{
  "sections": ["<string>"],
  "topicGroups": ["<string>"],
  "insights": ["<string>"]
}`,
	},
	agents.TypeRequirements: {
		persona: "a business analyst who extracts requirements from conversations",
		focus:   "List functional, non-functional and technical requirements stated or implied by the participants.",
		schema: `{
  "functional": ["<string>"],
  "nonFunctional": ["<string>"],
  "technical": ["<string>"],
  "summary": "<string>"
}`,
	},
	agents.TypeUserPerspective: {
		persona: "a UX researcher who studies what users want",
		focus:   "Identify user personas, their needs, and any feedback they gave.",
		schema: `{
  "personas": ["<string>"],
  "userNeeds": ["<string>"],
  "feedback": ["<string>"],
  "insights": ["<string>"]
}`,
	},
	agents.TypeDocumentationGap: {
		persona: "a documentation reviewer who finds what is missing or unclear",
		focus:   "Find unanswered questions, unclear explanations and missing documentation, then suggest fixes and priorities.",
		schema: `{
  "documentationGaps": ["<string>"],
  "suggestions": ["<string>"],
  "priorities": ["<string>"],
  "topics": ["<string>"]
}`,
	},
	agents.TypeMeta: {
		persona: "a conversation analyst who looks at the discussion as a whole",
		focus:   "Describe overall insights, recurring patterns, main themes, and assess the quality of the conversation.",
		schema: `{
  "metaInsights": ["<string>"],
  "patterns": ["<string>"],
  "themes": ["<string>"],
  "qualityAssessment": "<string>"
}`,
	},
}

// SystemPrompt provides strict directions and the JSON schema for an agent type.
func SystemPrompt(t agents.Type) string {
	p, ok := prompts[t]
	if !ok {
		return ""
	}
	return fmt.Sprintf(`You are %s. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Every key in the schema must be present; use an empty array or empty string when there is nothing to report.
- Keep each array item to one short sentence.
- Only report what the conversation supports; do not invent participants or facts.

Schema (example with empty values):
%s`, p.persona, p.schema)
}

// UserPrompt wraps the transcript with the agent's task.
func UserPrompt(t agents.Type, msgs []conversations.Message) string {
	p := prompts[t]
	var b strings.Builder
	b.WriteString(p.focus)
	b.WriteString(" Respond with the JSON per schema.\n\nTranscript:\n")
	b.WriteString(Transcript(msgs))
	b.WriteString("\n\nRequired JSON shape:\n")
	b.WriteString(p.schema)
	return b.String()
}

// Transcript renders messages as "role: content" lines, topics as headings.
func Transcript(msgs []conversations.Message) string {
	var b strings.Builder
	topic := ""
	for i, m := range msgs {
		if m.Topic != "" && m.Topic != topic {
			topic = m.Topic
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("# ")
			b.WriteString(topic)
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(m.Content))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
