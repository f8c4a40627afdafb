// Package analysis holds the deterministic text-analysis primitives and the
// heuristic form of every agent. Nothing here performs I/O.
package analysis

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Words lowercases s and splits it on anything that is not a letter, digit or apostrophe.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Sentences splits text on terminal punctuation and newlines. The
// terminating punctuation stays with its sentence.
func Sentences(text string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return out
}

// MatchesAny reports whether any word of text starts with one of the prefixes.
// Multi-word prefixes ("not sure") are matched as substrings.
func MatchesAny(text string, prefixes []string) bool {
	return len(Matched(text, prefixes)) > 0
}

// Matched returns the prefixes found in text, in prefix order.
func Matched(text string, prefixes []string) []string {
	words := Words(text)
	lower := strings.ToLower(text)
	var out []string
	for _, p := range prefixes {
		if strings.Contains(p, " ") {
			if strings.Contains(lower, p) {
				out = append(out, p)
			}
			continue
		}
		for _, w := range words {
			if strings.HasPrefix(w, p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// TopicGroup is the set of messages sharing one topic, in first-seen order.
type TopicGroup struct {
	Topic string
	Count int
}

// GroupByTopic groups messages by their topic field. Messages without a
// topic are not grouped.
func GroupByTopic(msgs []conversations.Message) []TopicGroup {
	idx := map[string]int{}
	var out []TopicGroup
	for _, m := range msgs {
		t := strings.TrimSpace(m.Topic)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if i, ok := idx[key]; ok {
			out[i].Count++
			continue
		}
		idx[key] = len(out)
		out = append(out, TopicGroup{Topic: t, Count: 1})
	}
	return out
}

// WordFrequency counts words of at least three letters that are not stop
// words and returns the top n, ties broken alphabetically.
func WordFrequency(msgs []conversations.Message, n int) []agents.WordCount {
	counts := map[string]int{}
	for _, m := range msgs {
		for _, w := range Words(m.Content) {
			w = strings.Trim(w, "'")
			if len([]rune(w)) < 3 || stopWords[w] {
				continue
			}
			counts[w]++
		}
	}
	out := make([]agents.WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, agents.WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ratio divides two counts, returning 0 when the denominator is zero.
func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func trim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// appendUnique appends s unless it is already present or the list is full.
func appendUnique(list []string, seen map[string]bool, s string, limit int) []string {
	if limit > 0 && len(list) >= limit {
		return list
	}
	key := strings.ToLower(s)
	if seen[key] {
		return list
	}
	seen[key] = true
	return append(list, s)
}

var stopWords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had",
	"her", "was", "one", "our", "out", "has", "have", "him", "his", "how", "its",
	"let", "may", "new", "now", "old", "see", "two", "way", "who", "did", "get",
	"got", "use", "that", "this", "with", "from", "they", "will", "would", "there",
	"their", "what", "about", "which", "when", "make", "like", "time", "just",
	"know", "take", "into", "your", "some", "could", "them", "than", "then",
	"also", "well", "only", "very", "even", "want", "because", "these", "should",
	"been", "being", "were", "does", "here", "more", "most", "such", "each",
	"other", "those", "where", "while", "over", "after", "before", "need", "it's",
	"i'm", "don't", "can't", "yes", "sure", "okay", "thanks", "thank", "please",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
