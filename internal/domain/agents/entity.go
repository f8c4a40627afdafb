package agents

import (
	"fmt"
	"time"
)

// AgentID identifier type
type AgentID string

// Type selects the analysis an agent performs. It is immutable after creation.
type Type string

const (
	TypeStructure        Type = "structure"
	TypeRequirements     Type = "requirements"
	TypeUserPerspective  Type = "user_perspective"
	TypeDocumentationGap Type = "documentation_gap"
	TypeMeta             Type = "meta"
)

// Order is the fixed execution order of a run.
var Order = []Type{
	TypeStructure,
	TypeRequirements,
	TypeUserPerspective,
	TypeDocumentationGap,
	TypeMeta,
}

// Rank returns the position of t in Order, or len(Order) for unknown types.
func Rank(t Type) int {
	for i, o := range Order {
		if o == t {
			return i
		}
	}
	return len(Order)
}

// ParseType validates a type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if Rank(t) == len(Order) {
		return "", fmt.Errorf("unknown agent type: %q", s)
	}
	return t, nil
}

// Agent is a named, configurable analysis unit.
type Agent struct {
	ID        AgentID    `json:"id"`
	Name      string     `json:"name"`
	Type      Type       `json:"type"`
	Enabled   bool       `json:"enabled"`
	Config    Config     `json:"config"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Defaults are the agents seeded into an empty store.
func Defaults() []Agent {
	return []Agent{
		{ID: "agent-structure", Name: "Structure Analyzer", Type: TypeStructure, Enabled: true,
			Config: Config{"minMessagesPerSection": 3}},
		{ID: "agent-requirements", Name: "Requirements Extractor", Type: TypeRequirements, Enabled: true,
			Config: Config{"requirementTypes": []any{"functional", "non-functional", "technical"}, "maxRequirements": 20}},
		{ID: "agent-user-perspective", Name: "User Perspective Analyzer", Type: TypeUserPerspective, Enabled: true,
			Config: Config{"maxUserNeeds": 15}},
		{ID: "agent-documentation-gap", Name: "Documentation Gap Finder", Type: TypeDocumentationGap, Enabled: true,
			Config: Config{"maxGaps": 15}},
		{ID: "agent-meta", Name: "Meta Analyzer", Type: TypeMeta, Enabled: true,
			Config: Config{"topWords": 5}},
	}
}
