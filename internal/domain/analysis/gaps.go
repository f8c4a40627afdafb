package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

type gapKind struct {
	name       string
	keywords   []string
	suggestion string
}

var gapKinds = []gapKind{
	{"unclear", []string{"unclear", "confus", "ambiguous", "not sure", "don't understand", "vague"},
		"Clarify ambiguous explanations with concrete examples"},
	{"missing", []string{"missing", "incomplete", "undocumented", "lacks", "no documentation"},
		"Document the missing pieces identified in the discussion"},
	{"todo", []string{"todo", "fixme", "tbd", "follow up"},
		"Resolve outstanding TODO items before publishing"},
	{"question", nil,
		"Add an FAQ section answering the open questions raised in the conversation"},
}

var questionOpeners = toSet("how", "what", "why", "where", "when", "which")

// DocumentationGap finds unclear, missing or open points in msgs.
// Options: maxGaps (default 15).
func DocumentationGap(msgs []conversations.Message, cfg agents.Config) *agents.DocumentationGapResult {
	limit := cfg.Int("maxGaps", 15)

	res := &agents.DocumentationGapResult{
		Provenance:  agents.Provenance{MessageCount: len(msgs)},
		Gaps:        []string{},
		Suggestions: []string{},
		Priorities:  []string{},
		Topics:      []string{},
	}

	kindCounts := map[string]int{}
	seen, topicSeen := map[string]bool{}, map[string]bool{}
	gapMessages := 0
	for _, m := range msgs {
		isGap := false
		for _, sentence := range Sentences(m.Content) {
			kinds := gapKindsOf(sentence)
			if len(kinds) == 0 {
				continue
			}
			isGap = true
			for _, k := range kinds {
				kindCounts[k]++
			}
			res.Gaps = appendUnique(res.Gaps, seen, trim(sentence, 200), limit)
		}
		if !isGap {
			continue
		}
		gapMessages++
		if m.Topic != "" {
			res.Topics = appendUnique(res.Topics, topicSeen, m.Topic, 0)
		}
	}
	res.GapCount = len(res.Gaps)
	res.GapDensity = ratio(gapMessages, len(msgs))

	ranked := make([]string, 0, len(kindCounts))
	for _, k := range gapKinds {
		if kindCounts[k.name] > 0 {
			ranked = append(ranked, k.name)
			res.Suggestions = append(res.Suggestions, k.suggestion)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return kindCounts[ranked[i]] > kindCounts[ranked[j]] })
	for i, k := range ranked {
		level := "low"
		switch {
		case i == 0 && res.GapDensity >= 0.25:
			level = "high"
		case i <= 1:
			level = "medium"
		}
		res.Priorities = append(res.Priorities, fmt.Sprintf("%s: %s (%d)", level, k, kindCounts[k]))
	}
	return res
}

func gapKindsOf(sentence string) []string {
	var out []string
	for _, k := range gapKinds {
		if k.keywords != nil && MatchesAny(sentence, k.keywords) {
			out = append(out, k.name)
		}
	}
	if isQuestion(sentence) {
		out = append(out, "question")
	}
	return out
}

func isQuestion(sentence string) bool {
	if strings.Contains(sentence, "?") {
		return true
	}
	words := Words(sentence)
	return len(words) > 0 && questionOpeners[words[0]]
}
