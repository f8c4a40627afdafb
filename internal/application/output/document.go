package output

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// document is the format-neutral layout every text renderer walks.
type document struct {
	Title    string
	Summary  []string
	Sections []section
}

type section struct {
	Title      string
	Paragraphs []string
	Groups     []group
}

type group struct {
	Title string
	Items []string
}

func (s *section) add(title string, items []string) {
	if len(items) == 0 {
		return
	}
	s.Groups = append(s.Groups, group{Title: title, Items: items})
}

func (s *section) note(p string) {
	if p != "" {
		s.Paragraphs = append(s.Paragraphs, p)
	}
}

func build(agg agents.Aggregate, msgs []conversations.Message) document {
	doc := document{Title: "Conversation Documentation"}
	doc.Summary = append(doc.Summary,
		fmt.Sprintf("Generated from %d messages by %d analysis agents.", len(msgs), len(agg)))
	if m := agg.Meta(); m != nil && m.QualityAssessment != "" {
		doc.Summary = append(doc.Summary, m.QualityAssessment)
	}
	if r := agg.Requirements(); r != nil && r.Summary != "" {
		doc.Summary = append(doc.Summary, r.Summary)
	}

	for _, t := range agg.Types() {
		var s section
		res := agg[t]
		switch r := res.(type) {
		case *agents.StructureResult:
			s.Title = "Document Structure"
			s.add("Outline", r.Sections)
			s.add("Topics", r.TopicGroups)
			s.add("Insights", r.Insights)
		case *agents.RequirementsResult:
			s.Title = "Requirements"
			s.add("Functional", r.Functional)
			s.add("Non-Functional", r.NonFunctional)
			s.add("Technical", r.Technical)
			s.note(fmt.Sprintf("%d requirements, density %.2f.", r.RequirementCount, r.RequirementDensity))
		case *agents.UserPerspectiveResult:
			s.Title = "User Perspective"
			s.add("Personas", r.Personas)
			s.add("User Needs", r.UserNeeds)
			s.add("Feedback", r.Feedback)
			s.add("Insights", r.Insights)
		case *agents.DocumentationGapResult:
			s.Title = "Documentation Gaps"
			s.add("Gaps", r.Gaps)
			s.add("Suggestions", r.Suggestions)
			s.add("Priorities", r.Priorities)
			s.note(fmt.Sprintf("%d gaps, density %.2f.", r.GapCount, r.GapDensity))
		case *agents.MetaResult:
			s.Title = "Conversation Insights"
			s.add("Insights", r.Insights)
			s.add("Patterns", r.Patterns)
			s.add("Themes", r.Themes)
			words := make([]string, 0, len(r.TopWords))
			for _, w := range r.TopWords {
				words = append(words, fmt.Sprintf("%s (%d)", w.Word, w.Count))
			}
			s.add("Top Words", words)
			s.note(fmt.Sprintf("Role balance %.2f, topic diversity %.2f.", r.RoleBalance, r.TopicDiversity))
		default:
			continue
		}
		s.note(provenance(res.Info()))
		doc.Sections = append(doc.Sections, s)
	}

	if len(msgs) > 0 {
		tr := section{Title: "Transcript"}
		lines := make([]string, 0, len(msgs))
		for _, m := range msgs {
			lines = append(lines, m.Role+": "+strings.TrimSpace(m.Content))
		}
		tr.add("", lines)
		doc.Sections = append(doc.Sections, tr)
	}
	return doc
}

func provenance(p *agents.Provenance) string {
	switch {
	case p.Fallback:
		return "Produced by heuristic analysis (" + p.FallbackReason + ")."
	case p.AIProvider != "":
		return fmt.Sprintf("Produced by %s (%s).", p.AIProvider, p.AIModel)
	}
	return ""
}
