package analysis

import (
	"fmt"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Bookend sections every structure result starts and ends with.
var (
	LeadingSections  = []string{"Executive Summary", "Overview"}
	TrailingSections = []string{"Key Findings", "Recommendations", "Conclusion"}
)

// Structure proposes a document outline from the topic metadata of msgs.
// Options: minMessagesPerSection (default 3).
func Structure(msgs []conversations.Message, cfg agents.Config) *agents.StructureResult {
	minPerSection := cfg.Int("minMessagesPerSection", 3)
	if minPerSection < 1 {
		minPerSection = 1
	}

	groups := GroupByTopic(msgs)
	res := &agents.StructureResult{
		Provenance:  agents.Provenance{MessageCount: len(msgs)},
		Sections:    append([]string{}, LeadingSections...),
		TopicGroups: make([]string, 0, len(groups)),
		TopicCount:  len(groups),
	}

	var (
		largest TopicGroup
		folded  int
	)
	for _, g := range groups {
		res.TopicGroups = append(res.TopicGroups, g.Topic)
		if g.Count > largest.Count {
			largest = g
		}
		if g.Count >= minPerSection {
			res.Sections = append(res.Sections, g.Topic)
		} else {
			folded++
		}
	}
	res.Sections = append(res.Sections, TrailingSections...)

	res.Insights = append(res.Insights,
		fmt.Sprintf("Conversation contains %d messages across %d topics", len(msgs), len(groups)))
	if largest.Count > 0 {
		res.Insights = append(res.Insights,
			fmt.Sprintf("Most discussed topic: %s (%d messages)", largest.Topic, largest.Count))
	}
	if folded > 0 {
		res.Insights = append(res.Insights,
			fmt.Sprintf("%d topics with fewer than %d messages are covered in the Overview", folded, minPerSection))
	}
	if len(groups) == 0 {
		res.Insights = append(res.Insights, "No topic metadata present; using the default outline")
	}
	return res
}
