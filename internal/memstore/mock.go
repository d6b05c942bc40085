package memstore

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-process memory store for local runs and tests.
type MockStore struct {
	mu       sync.RWMutex
	users    map[string]User
	sessions map[string][]Session // keyed by user ID, newest first
	memories map[string]Memory
	messages map[string][]Message

	// Optional error hooks let tests simulate collaborator failures.
	GetUserErr          error
	CreateUserErr       error
	ListSessionsErr     error
	GetSessionMemoryErr error
	ListMessagesErr     error
	AppendMessagesErr   error
}

func NewMockStore() *MockStore {
	return &MockStore{
		users:    make(map[string]User),
		sessions: make(map[string][]Session),
		memories: make(map[string]Memory),
		messages: make(map[string][]Message),
	}
}

func (s *MockStore) GetUser(_ context.Context, userID string) (User, error) {
	if s.GetUserErr != nil {
		return User{}, s.GetUserErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MockStore) CreateUser(_ context.Context, user NewUser) (User, error) {
	if s.CreateUserErr != nil {
		return User{}, s.CreateUserErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := User{
		UserID:    user.UserID,
		FirstName: user.FirstName,
		Metadata:  user.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.UserID] = created
	return created, nil
}

func (s *MockStore) ListSessions(_ context.Context, userID string) ([]Session, error) {
	if s.ListSessionsErr != nil {
		return nil, s.ListSessionsErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, len(s.sessions[userID]))
	copy(out, s.sessions[userID])
	return out, nil
}

func (s *MockStore) GetSessionMemory(_ context.Context, sessionID string) (Memory, error) {
	if s.GetSessionMemoryErr != nil {
		return Memory{}, s.GetSessionMemoryErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.memories[sessionID]
	if !ok {
		return Memory{}, nil
	}
	return mem, nil
}

func (s *MockStore) ListMessages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	if s.ListMessagesErr != nil {
		return nil, s.ListMessagesErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MockStore) AppendMessages(_ context.Context, sessionID string, msgs []Message) error {
	if s.AppendMessagesErr != nil {
		return s.AppendMessagesErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSessionLocked(sessionID)
	s.messages[sessionID] = append(s.messages[sessionID], msgs...)
	return nil
}

func (s *MockStore) Close() error { return nil }

// SeedSession registers a session for a user, newest first, with optional
// memory and message history. Intended for tests and local demos.
func (s *MockStore) SeedSession(userID, sessionID string, createdAt time.Time, mem Memory, msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{SessionID: sessionID, UserID: userID, CreatedAt: createdAt}
	s.sessions[userID] = append([]Session{sess}, s.sessions[userID]...)
	s.memories[sessionID] = mem
	s.messages[sessionID] = msgs
}

// Messages returns a copy of everything appended to a session.
func (s *MockStore) Messages(sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages[sessionID]))
	copy(out, s.messages[sessionID])
	return out
}

func (s *MockStore) ensureSessionLocked(sessionID string) {
	if _, ok := s.messages[sessionID]; ok {
		return
	}
	s.messages[sessionID] = nil
}
