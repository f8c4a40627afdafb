package agents

import (
	"context"
	"fmt"
	"slices"

	domain "github.com/bryanwahyu/convodoc/internal/domain/agents"
)

// Service manages the agent catalogue.
type Service struct {
	Repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{Repo: repo}
}

// Seed inserts the default agents that are not stored yet.
func (s *Service) Seed(ctx context.Context) error {
	return s.Repo.SeedAgents(ctx, domain.Defaults())
}

// List returns agents in execution order.
func (s *Service) List(ctx context.Context) ([]domain.Agent, error) {
	list, err := s.Repo.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b domain.Agent) int {
		return domain.Rank(a.Type) - domain.Rank(b.Type)
	})
	return list, nil
}

// Update toggles an agent and/or replaces its config. Nil arguments are left untouched.
func (s *Service) Update(ctx context.Context, id domain.AgentID, enabled *bool, cfg domain.Config) (*domain.Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	return s.Repo.UpdateAgent(ctx, id, enabled, cfg)
}
