package analysis

import (
	"fmt"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Meta computes conversation-level statistics and derives canned insights
// from them. Options: topWords (default 5).
func Meta(msgs []conversations.Message, cfg agents.Config) *agents.MetaResult {
	n := cfg.Int("topWords", 5)

	byRole := map[string]int{}
	words := 0
	for _, m := range msgs {
		byRole[m.Role]++
		words += len(Words(m.Content))
	}
	users, assistants := byRole[conversations.RoleUser], byRole[conversations.RoleAssistant]
	groups := GroupByTopic(msgs)

	res := &agents.MetaResult{
		Provenance:     agents.Provenance{MessageCount: len(msgs)},
		MessageStats:   agents.MessageStats{Total: len(msgs), ByRole: byRole},
		RoleBalance:    float64(users) / float64(max(assistants, 1)),
		TopicDiversity: ratio(len(groups), len(msgs)),
		TopWords:       WordFrequency(msgs, n),
		Insights:       []string{},
		Patterns:       []string{},
		Themes:         []string{},
	}

	switch {
	case res.RoleBalance > 1.5:
		res.Insights = append(res.Insights,
			fmt.Sprintf("User-driven conversation: %.1f user messages per assistant reply", res.RoleBalance))
	case res.RoleBalance < 0.67:
		res.Insights = append(res.Insights, "Assistant-led conversation with extended responses")
	default:
		res.Insights = append(res.Insights, "Balanced dialogue between user and assistant")
	}
	switch {
	case len(groups) == 0:
		res.Insights = append(res.Insights, "No topic metadata present")
	case res.TopicDiversity > 0.5:
		res.Insights = append(res.Insights, "High topic diversity; the conversation covers many subjects briefly")
	case res.TopicDiversity < 0.2:
		res.Insights = append(res.Insights, "Focused discussion on a small set of topics")
	default:
		res.Insights = append(res.Insights, "Moderate topic diversity")
	}
	if len(res.TopWords) > 0 {
		top := res.TopWords[0]
		res.Insights = append(res.Insights, fmt.Sprintf("Most frequent term: %q (%d mentions)", top.Word, top.Count))
	}

	for _, w := range res.TopWords {
		res.Themes = append(res.Themes, w.Word)
	}
	res.Patterns = append(res.Patterns,
		fmt.Sprintf("Average message length: %.0f words", ratio(words, len(msgs))),
		fmt.Sprintf("%d user and %d assistant messages", users, assistants))
	if len(groups) > 0 {
		res.Patterns = append(res.Patterns, fmt.Sprintf("%d distinct topics", len(groups)))
	}

	switch {
	case len(msgs) < 4:
		res.QualityAssessment = "Short conversation; generated documentation will be thin"
	case res.RoleBalance >= 0.67 && res.RoleBalance <= 1.5 && len(msgs) >= 10:
		res.QualityAssessment = "Substantive, balanced conversation suitable for documentation"
	default:
		res.QualityAssessment = "Adequate conversation for documentation"
	}
	return res
}
