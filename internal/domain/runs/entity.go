package runs

import (
	"time"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// RunID identifier type
type RunID string

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from -> to is allowed. Statuses only move
// forward: pending -> running -> completed|failed, plus pending -> failed for
// runs rejected before any agent executes. A status never repeats.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	}
	return false
}

// Resumable reports whether an analysis may be (re)entered from s.
// A running run resumes without restarting its clock.
func (s Status) Resumable() bool {
	return s == StatusPending || s == StatusRunning
}

// Run is one execution of the pipeline against one document.
// Result and CompletedAt are set only when Status is completed.
type Run struct {
	ID          RunID                    `json:"id"`
	DocumentID  conversations.DocumentID `json:"document_id"`
	Status      Status                   `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Result      agents.Aggregate         `json:"result,omitempty"`
}
