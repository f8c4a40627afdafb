package analysis

import (
	"fmt"
	"sort"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Persona buckets and the keywords that place a message in them.
const (
	PersonaDeveloper      = "developer"
	PersonaResearcher     = "researcher"
	PersonaProjectManager = "project-manager"
)

var personaKeywords = []struct {
	persona  string
	keywords []string
}{
	{PersonaDeveloper, []string{"code", "api", "bug", "debug", "implement", "function", "deploy", "repositor", "compile", "library", "framework", "test", "refactor"}},
	{PersonaResearcher, []string{"research", "study", "data", "analy", "hypothes", "experiment", "paper", "evidence", "survey", "findings", "literature"}},
	{PersonaProjectManager, []string{"deadline", "timeline", "milestone", "stakeholder", "budget", "roadmap", "priorit", "schedule", "deliver", "scope", "team", "sprint"}},
}

var (
	userReferenceKeywords = []string{"user", "need", "want"}
	feedbackKeywords      = []string{
		"feedback", "like", "love", "hate", "prefer", "frustrat", "confus", "great",
		"helpful", "annoy", "wish", "problem", "issue", "complain",
	}
)

// UserPerspective buckets messages into personas and collects user needs and feedback.
// Options: maxUserNeeds (default 15).
func UserPerspective(msgs []conversations.Message, cfg agents.Config) *agents.UserPerspectiveResult {
	limit := cfg.Int("maxUserNeeds", 15)

	res := &agents.UserPerspectiveResult{
		Provenance:    agents.Provenance{MessageCount: len(msgs)},
		Personas:      []string{},
		PersonaCounts: map[string]int{},
		UserNeeds:     []string{},
		Feedback:      []string{},
		Insights:      []string{},
	}

	needSeen, feedbackSeen := map[string]bool{}, map[string]bool{}
	userMessages := 0
	for _, m := range msgs {
		if m.Role == conversations.RoleUser {
			userMessages++
		}
		for _, p := range personaKeywords {
			if MatchesAny(m.Content, p.keywords) {
				res.PersonaCounts[p.persona]++
			}
		}
		if MatchesAny(m.Content, userReferenceKeywords) {
			res.TotalUserReferences++
		}
		for _, sentence := range Sentences(m.Content) {
			if MatchesAny(sentence, userReferenceKeywords) {
				res.UserNeeds = appendUnique(res.UserNeeds, needSeen, sentence, limit)
			}
			if MatchesAny(sentence, feedbackKeywords) {
				res.Feedback = appendUnique(res.Feedback, feedbackSeen, sentence, limit)
			}
		}
	}

	for _, p := range personaKeywords {
		if res.PersonaCounts[p.persona] > 0 {
			res.Personas = append(res.Personas, p.persona)
		}
	}
	sort.SliceStable(res.Personas, func(i, j int) bool {
		return res.PersonaCounts[res.Personas[i]] > res.PersonaCounts[res.Personas[j]]
	})

	if len(res.Personas) > 0 {
		top := res.Personas[0]
		res.Insights = append(res.Insights,
			fmt.Sprintf("Primary persona: %s (%d messages)", top, res.PersonaCounts[top]))
	} else {
		res.Insights = append(res.Insights, "No persona-specific vocabulary detected")
	}
	res.Insights = append(res.Insights,
		fmt.Sprintf("%d user needs and %d feedback statements identified", len(res.UserNeeds), len(res.Feedback)))
	res.Insights = append(res.Insights,
		fmt.Sprintf("User messages make up %.0f%% of the conversation", 100*ratio(userMessages, len(msgs))))
	return res
}
