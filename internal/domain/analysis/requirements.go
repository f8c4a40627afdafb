package analysis

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Requirement categories accepted in the requirementTypes option.
const (
	CategoryFunctional    = "functional"
	CategoryNonFunctional = "non-functional"
	CategoryTechnical     = "technical"
)

var (
	requirementKeywords = []string{
		"should", "must", "require", "need", "implement", "support",
		"shall", "expect", "ensure", "allow", "has to", "have to",
	}
	nonFunctionalKeywords = []string{
		"performance", "fast", "latency", "scal", "secur", "reliab", "availab",
		"usab", "maintainab", "accessib", "responsive", "uptime", "throughput",
	}
	technicalKeywords = []string{
		"api", "database", "server", "framework", "library", "deploy", "integrat",
		"endpoint", "schema", "protocol", "infrastructure", "docker", "cloud",
		"backend", "frontend", "sql", "json", "http", "cache", "queue",
	}
)

// Requirements extracts requirement-like sentences from msgs.
// Options: requirementTypes (default all three categories), maxRequirements (default 20).
func Requirements(msgs []conversations.Message, cfg agents.Config) *agents.RequirementsResult {
	limit := cfg.Int("maxRequirements", 20)
	enabled := RequirementTypes(cfg)

	res := &agents.RequirementsResult{
		Provenance:    agents.Provenance{MessageCount: len(msgs)},
		Functional:    []string{},
		NonFunctional: []string{},
		Technical:     []string{},
	}

	seen := map[string]bool{}
	matchingMessages := 0
	for _, m := range msgs {
		matchedMessage := false
		for _, sentence := range Sentences(m.Content) {
			if !MatchesAny(sentence, requirementKeywords) {
				continue
			}
			matchedMessage = true
			if res.RequirementCount >= limit || seen[strings.ToLower(sentence)] {
				continue
			}
			seen[strings.ToLower(sentence)] = true
			res.RequirementCount++
			for _, cat := range classify(sentence, enabled) {
				switch cat {
				case CategoryFunctional:
					res.Functional = append(res.Functional, sentence)
				case CategoryNonFunctional:
					res.NonFunctional = append(res.NonFunctional, sentence)
				case CategoryTechnical:
					res.Technical = append(res.Technical, sentence)
				}
			}
		}
		if matchedMessage {
			matchingMessages++
		}
	}

	res.RequirementDensity = ratio(matchingMessages, len(msgs))
	res.Summary = fmt.Sprintf(
		"Identified %d requirements (%d functional, %d non-functional, %d technical) in %d of %d messages",
		res.RequirementCount, len(res.Functional), len(res.NonFunctional), len(res.Technical),
		matchingMessages, len(msgs))
	return res
}

// classify returns the enabled categories a sentence belongs to. A sentence
// is functional unless it talks about quality attributes; technical terms can
// co-occur with either. Sentences matching no enabled category land in the
// first enabled one.
func classify(sentence string, enabled []string) []string {
	enabledSet := toSet(enabled...)
	quality := MatchesAny(sentence, nonFunctionalKeywords)

	var cats []string
	if enabledSet[CategoryFunctional] && !quality {
		cats = append(cats, CategoryFunctional)
	}
	if enabledSet[CategoryNonFunctional] && quality {
		cats = append(cats, CategoryNonFunctional)
	}
	if enabledSet[CategoryTechnical] && MatchesAny(sentence, technicalKeywords) {
		cats = append(cats, CategoryTechnical)
	}
	if len(cats) == 0 {
		cats = append(cats, enabled[0])
	}
	return cats
}

// RequirementTypes normalizes the requirementTypes option; empty means all categories.
func RequirementTypes(cfg agents.Config) []string {
	raw := cfg.Strings("requirementTypes", nil)
	var out []string
	for _, r := range raw {
		switch strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(r)) {
		case "functional":
			out = append(out, CategoryFunctional)
		case "non-functional", "nonfunctional":
			out = append(out, CategoryNonFunctional)
		case "technical":
			out = append(out, CategoryTechnical)
		}
	}
	if len(out) == 0 {
		return []string{CategoryFunctional, CategoryNonFunctional, CategoryTechnical}
	}
	return out
}
