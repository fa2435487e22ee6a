package domain

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role constants for conversation turns.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleNotice = "system-notice"
)

// Turn is one atomic entry in the conversation ledger.
//
// Invariant: agent-authored turns always carry a non-empty Agent; user turns
// never do. Turns are append-only and owned exclusively by the orchestrator.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Agent     AgentID   `json:"agent,omitempty"`
	Content   string    `json:"content"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn creates a turn stamped with a fresh ULID and the current time.
func NewTurn(role string, agent AgentID, content string) Turn {
	now := time.Now()
	return Turn{
		ID:        newULID(now),
		Role:      role,
		Agent:     agent,
		Content:   content,
		CreatedAt: now,
	}
}

func newULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
