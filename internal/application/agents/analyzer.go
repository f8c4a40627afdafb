package agents

import (
	"context"

	domain "github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/analysis"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Analyzer turns a conversation into one agent result.
type Analyzer interface {
	Analyze(ctx context.Context, msgs []conversations.Message, cfg domain.Config) (domain.Result, error)
}

// Registry dispatches by agent type.
type Registry map[domain.Type]Analyzer

func (r Registry) For(t domain.Type) (Analyzer, bool) {
	a, ok := r[t]
	return a, ok
}

type heuristicFunc func([]conversations.Message, domain.Config) domain.Result

func (f heuristicFunc) Analyze(_ context.Context, msgs []conversations.Message, cfg domain.Config) (domain.Result, error) {
	return f(msgs, cfg), nil
}

var heuristics = map[domain.Type]heuristicFunc{
	domain.TypeStructure: func(m []conversations.Message, c domain.Config) domain.Result {
		return analysis.Structure(m, c)
	},
	domain.TypeRequirements: func(m []conversations.Message, c domain.Config) domain.Result {
		return analysis.Requirements(m, c)
	},
	domain.TypeUserPerspective: func(m []conversations.Message, c domain.Config) domain.Result {
		return analysis.UserPerspective(m, c)
	},
	domain.TypeDocumentationGap: func(m []conversations.Message, c domain.Config) domain.Result {
		return analysis.DocumentationGap(m, c)
	},
	domain.TypeMeta: func(m []conversations.Message, c domain.Config) domain.Result {
		return analysis.Meta(m, c)
	},
}

// HeuristicRegistry runs every agent with the deterministic analyzers only.
func HeuristicRegistry() Registry {
	r := make(Registry, len(heuristics))
	for t, h := range heuristics {
		r[t] = h
	}
	return r
}
