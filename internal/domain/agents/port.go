package agents

import (
	"context"
	"time"
)

// Repository port for agent definitions.
type Repository interface {
	SeedAgents(ctx context.Context, defs []Agent) error
	ListAgents(ctx context.Context) ([]Agent, error)
	GetEnabledAgents(ctx context.Context) ([]Agent, error)
	UpdateAgent(ctx context.Context, id AgentID, enabled *bool, cfg Config) (*Agent, error)
	TouchAgentLastRun(ctx context.Context, id AgentID, at time.Time) error
}
