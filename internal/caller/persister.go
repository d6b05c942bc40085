package caller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/axmenrecycling/voicebridge/internal/memstore"
	"github.com/axmenrecycling/voicebridge/internal/observability"
)

// Persister writes a finished call's transcript into the memory service.
// Unlike the resolver it is strict: a lost transcript must surface as an
// error so the platform can retry the delivery.
type Persister struct {
	store   memstore.Store
	metrics *observability.Metrics
}

func NewPersister(store memstore.Store, metrics *observability.Metrics) *Persister {
	return &Persister{store: store, metrics: metrics}
}

// Persist derives the call's session, ensures the caller identity exists,
// normalizes the transcript and appends it. An empty (or all-empty-content)
// transcript is a successful no-op: a call with no dialogue is valid.
func (p *Persister) Persist(ctx context.Context, callerID, callID string, messages []RawMessage) (PersistResult, error) {
	if strings.TrimSpace(callerID) == "" {
		return PersistResult{}, ErrNoCaller
	}
	if strings.TrimSpace(callID) == "" {
		return PersistResult{}, ErrNoCallID
	}

	sessionID := DeriveSessionID(callerID, callID)

	if err := p.ensureUser(ctx, callerID); err != nil {
		p.countError("ensure_user")
		return PersistResult{}, fmt.Errorf("ensure user %s: %w", callerID, err)
	}

	normalized, truncated := Normalize(messages)
	if truncated > 0 {
		log.Printf("persist %s: truncated %d messages over %d chars", sessionID, truncated, MaxMessageChars)
	}
	if len(normalized) == 0 {
		return PersistResult{SessionID: sessionID}, nil
	}

	// The append creates the session when it does not exist yet; that is
	// the store's contract, not reimplemented here.
	if err := p.store.AppendMessages(ctx, sessionID, normalized); err != nil {
		p.countError("append_messages")
		return PersistResult{}, fmt.Errorf("save conversation %s: %w", sessionID, err)
	}

	if p.metrics != nil {
		p.metrics.MessagesPersisted.Add(float64(len(normalized)))
		p.metrics.MessagesTruncated.Add(float64(truncated))
	}
	return PersistResult{SessionID: sessionID, Saved: len(normalized), Truncated: truncated}, nil
}

func (p *Persister) ensureUser(ctx context.Context, callerID string) error {
	_, err := p.store.GetUser(ctx, callerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, memstore.ErrNotFound) {
		// Could be a transient failure on an existing user; creating
		// anyway would be guesswork, so surface it.
		return err
	}
	_, err = p.store.CreateUser(ctx, memstore.NewUser{
		UserID:    callerID,
		FirstName: callerID,
		Metadata: map[string]string{
			"phone":  callerID,
			"source": MetadataSource,
		},
	})
	return err
}

// Normalize maps raw platform messages onto the memory service's message
// shape: the assistant role is kept, every other role becomes "user",
// empty content is dropped and over-long content is truncated with a marker.
func Normalize(messages []RawMessage) (normalized []memstore.Message, truncated int) {
	for _, msg := range messages {
		content := msg.Content
		if content == "" {
			continue
		}
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		if len(content) > MaxMessageChars {
			content = content[:MaxMessageChars-50] + truncationMarker
			truncated++
		}
		normalized = append(normalized, memstore.Message{
			Role:     role,
			RoleType: role,
			Content:  content,
		})
	}
	return normalized, truncated
}

func (p *Persister) countError(op string) {
	if p.metrics != nil {
		p.metrics.CollaboratorErrors.WithLabelValues("memory", op).Inc()
	}
}
