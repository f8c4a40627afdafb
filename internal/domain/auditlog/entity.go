package auditlog

import (
	"encoding/json"
	"time"
)

// Level is the severity of an entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is an append-only audit record of a run. AgentID is empty for
// orchestrator-level messages. Seq is assigned by the store and increases
// with every append.
type Entry struct {
	Seq       int64           `json:"seq"`
	RunID     string          `json:"run_id"`
	AgentID   string          `json:"agent_id,omitempty"`
	Level     Level           `json:"level"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
