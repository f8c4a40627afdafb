// Package memory is a process-local store for tests and the single-binary dev mode.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/convodoc/internal/domain"
	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

// Store keeps everything in maps guarded by one mutex, so writes are serialized.
type Store struct {
	mu        sync.Mutex
	documents map[conversations.DocumentID]conversations.Document
	messages  map[conversations.DocumentID][]conversations.Message
	runs      map[runs.RunID]runs.Run
	agents    map[agents.AgentID]agents.Agent
	logs      map[string][]auditlog.Entry
	artifacts map[string][]artifacts.Artifact
	seq       int64
	now       func() time.Time
}

func New() *Store {
	return &Store{
		documents: map[conversations.DocumentID]conversations.Document{},
		messages:  map[conversations.DocumentID][]conversations.Message{},
		runs:      map[runs.RunID]runs.Run{},
		agents:    map[agents.AgentID]agents.Agent{},
		logs:      map[string][]auditlog.Entry{},
		artifacts: map[string][]artifacts.Artifact{},
		now:       time.Now,
	}
}

// ==== documents ====

func (s *Store) CreateDocument(_ context.Context, d *conversations.Document, msgs []conversations.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[d.ID]; ok {
		return fmt.Errorf("document %s already exists", d.ID)
	}
	s.documents[d.ID] = *d
	s.messages[d.ID] = slices.Clone(msgs)
	return nil
}

func (s *Store) GetDocument(_ context.Context, id conversations.DocumentID) (*conversations.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (s *Store) GetMessagesByDocument(_ context.Context, id conversations.DocumentID) ([]conversations.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(s.messages[id]), nil
}

func (s *Store) ListDocuments(_ context.Context, limit int) ([]*conversations.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*conversations.Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ==== runs ====

func (s *Store) CreateRun(_ context.Context, r *runs.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("run %s already exists", r.ID)
	}
	s.runs[r.ID] = *r
	return nil
}

func (s *Store) GetRun(_ context.Context, id runs.RunID) (*runs.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *Store) Latest(_ context.Context, limit int) ([]*runs.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*runs.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// transition applies fn to the run if from -> to is allowed.
func (s *Store) transition(id runs.RunID, to runs.Status, fn func(*runs.Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !runs.CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", runs.ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	fn(&r)
	s.runs[id] = r
	return nil
}

func (s *Store) UpdateRunStatus(_ context.Context, id runs.RunID, status runs.Status) error {
	return s.transition(id, status, func(r *runs.Run) {
		if status == runs.StatusRunning {
			now := s.now()
			r.StartedAt = &now
		}
	})
}

func (s *Store) FailRun(_ context.Context, id runs.RunID, reason string) error {
	return s.transition(id, runs.StatusFailed, func(r *runs.Run) {
		r.Error = reason
		r.Result = nil
		r.CompletedAt = nil
	})
}

func (s *Store) CompleteRun(_ context.Context, id runs.RunID, result agents.Aggregate, at time.Time) error {
	if result == nil {
		result = agents.Aggregate{}
	}
	return s.transition(id, runs.StatusCompleted, func(r *runs.Run) {
		r.Result = result
		r.CompletedAt = &at
	})
}

// ==== agents ====

func (s *Store) SeedAgents(_ context.Context, defs []agents.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range defs {
		if _, ok := s.agents[a.ID]; ok {
			continue
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = s.now()
		}
		a.Config = cloneConfig(a.Config)
		s.agents[a.ID] = a
	}
	return nil
}

func (s *Store) ListAgents(_ context.Context) ([]agents.Agent, error) {
	return s.listAgents(false), nil
}

func (s *Store) GetEnabledAgents(_ context.Context) ([]agents.Agent, error) {
	return s.listAgents(true), nil
}

func (s *Store) listAgents(enabledOnly bool) []agents.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]agents.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if enabledOnly && !a.Enabled {
			continue
		}
		a.Config = cloneConfig(a.Config)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpdateAgent(_ context.Context, id agents.AgentID, enabled *bool, cfg agents.Config) (*agents.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if enabled != nil {
		a.Enabled = *enabled
	}
	if cfg != nil {
		a.Config = cloneConfig(cfg)
	}
	s.agents[id] = a
	a.Config = cloneConfig(a.Config)
	return &a, nil
}

func (s *Store) TouchAgentLastRun(_ context.Context, id agents.AgentID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.LastRunAt = &at
	s.agents[id] = a
	return nil
}

func cloneConfig(c agents.Config) agents.Config {
	out := make(agents.Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ==== audit log ====

func (s *Store) AppendLog(_ context.Context, e *auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.Seq = s.seq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	cp := *e
	cp.Payload = slices.Clone(e.Payload)
	s.logs[e.RunID] = append(s.logs[e.RunID], cp)
	return nil
}

func (s *Store) ListLogs(_ context.Context, runID string, limit int) ([]*auditlog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.logs[runID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]*auditlog.Entry, 0, len(entries))
	for _, e := range entries {
		e.Payload = slices.Clone(e.Payload)
		out = append(out, &e)
	}
	return out, nil
}

// ==== artifacts ====

func (s *Store) CreateArtifact(_ context.Context, a *artifacts.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.RunID] = append(s.artifacts[a.RunID], *a)
	return nil
}

func (s *Store) ListArtifacts(_ context.Context, runID string) ([]*artifacts.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.artifacts[runID]
	out := make([]*artifacts.Artifact, 0, len(list))
	for _, a := range list {
		out = append(out, &a)
	}
	return out, nil
}

func (s *Store) GetArtifact(_ context.Context, runID string, format artifacts.Format) (*artifacts.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.artifacts[runID] {
		if a.Format == format {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}
