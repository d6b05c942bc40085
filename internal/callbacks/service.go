package callbacks

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/axmenrecycling/voicebridge/internal/observability"
)

// Service captures callback requests from the voice agent. Like every
// read-path collaborator it always answers with a spoken sentence; storage
// failures are logged and counted, never surfaced mid-call.
type Service struct {
	store   Store
	metrics *observability.Metrics
}

func NewService(store Store, metrics *observability.Metrics) *Service {
	return &Service{store: store, metrics: metrics}
}

// Capture validates and stores a callback request, returning the sentence
// the agent should speak.
func (s *Service) Capture(ctx context.Context, req Request) string {
	req.CallerName = strings.TrimSpace(req.CallerName)
	req.CallerPhone = strings.TrimSpace(req.CallerPhone)
	req.MaterialDescription = strings.TrimSpace(req.MaterialDescription)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.CallerPhone == "" {
		s.observe("missing_phone")
		return "I need your phone number so we can call you back. What's the best number to reach you?"
	}

	saved, err := s.store.Save(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CollaboratorErrors.WithLabelValues("callbacks", "save").Inc()
		}
		log.Printf("callback capture for %s: %v", req.CallerPhone, err)
		s.observe("error")
		return "I wasn't able to save that just now, but someone will follow up if you leave your number with our front desk."
	}

	s.observe("saved")
	log.Printf("callback request %d saved for %s", saved.ID, saved.CallerPhone)
	return "Got it. Someone from the yard will call you back shortly."
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.CallbacksSaved.WithLabelValues(outcome).Inc()
	}
}

// MockStore is an in-memory callback store for tests and DB-less runs.
type MockStore struct {
	mu      sync.Mutex
	nextID  int64
	saved   []Request
	SaveErr error
}

func NewMockStore() *MockStore { return &MockStore{} }

func (s *MockStore) Save(_ context.Context, req Request) (Request, error) {
	if s.SaveErr != nil {
		return Request{}, s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	if req.Status == "" {
		req.Status = "pending"
	}
	s.saved = append(s.saved, req)
	return req, nil
}

func (s *MockStore) Saved() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.saved))
	copy(out, s.saved)
	return out
}

func (s *MockStore) Close() error { return nil }
