package memstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that a user or session does not exist in the memory
// service. Callers treat it as an expected condition, not a failure.
var ErrNotFound = errors.New("memstore: not found")

// User is an identity record keyed by canonical phone number.
type User struct {
	UserID    string            `json:"user_id"`
	FirstName string            `json:"first_name,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// NewUser carries the fields needed to create an identity record.
type NewUser struct {
	UserID    string            `json:"user_id"`
	FirstName string            `json:"first_name,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Session is a handle to one conversation's memory container.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Message is a single conversational turn as stored by the memory service.
type Message struct {
	Role     string `json:"role"`
	RoleType string `json:"role_type,omitempty"`
	Content  string `json:"content"`
}

// Fact is a short extracted statement the memory service keeps per session.
type Fact struct {
	Fact string `json:"fact"`
}

// Summary is the service-maintained rolling summary of a session.
type Summary struct {
	Content string `json:"content"`
}

// Memory bundles a session's facts with its rolling summary, if any.
type Memory struct {
	Facts   []Fact   `json:"facts,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// Store is the capability surface of the conversational memory service.
//
// ListSessions must return sessions most-recent-first; consumers pick the
// head of the list as the latest conversation and do not re-sort.
// AppendMessages creates the session lazily when it does not exist yet.
type Store interface {
	GetUser(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, user NewUser) (User, error)
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	GetSessionMemory(ctx context.Context, sessionID string) (Memory, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	AppendMessages(ctx context.Context, sessionID string, msgs []Message) error
	Close() error
}
