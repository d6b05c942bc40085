package caller

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/axmenrecycling/voicebridge/internal/memstore"
	"github.com/axmenrecycling/voicebridge/internal/observability"
)

// Fixed summaries for the degraded tiers. The voice agent speaks these
// verbatim, so they are sentences rather than error codes.
const (
	summaryFirstTime   = "First time caller - no previous conversation history."
	summaryNoSessions  = "No previous conversations found."
	summaryOnFile      = "Returning caller with previous conversation on file."
	summaryUnavailable = "Unable to retrieve caller history."
)

const (
	maxFacts           = 5
	maxRecentMessages  = 10
	maxRenderedRecents = 5
	recentContentChars = 100
	lastTopicChars     = 200
)

// Resolver reconstructs a caller's prior context from whatever the memory
// service still has. It never fails outward: every collaborator error
// degrades to a defined default so a live call always gets a greeting.
type Resolver struct {
	store   memstore.Store
	metrics *observability.Metrics
}

func NewResolver(store memstore.Store, metrics *observability.Metrics) *Resolver {
	return &Resolver{store: store, metrics: metrics}
}

// Resolve produces a bounded summary of prior interactions for a caller.
func (r *Resolver) Resolve(ctx context.Context, callerID string) ContextSummary {
	summary := r.resolve(ctx, callerID)
	summary.CallerPhone = callerID
	return summary
}

func (r *Resolver) resolve(ctx context.Context, callerID string) ContextSummary {
	if _, err := r.store.GetUser(ctx, callerID); err != nil {
		if errors.Is(err, memstore.ErrNotFound) {
			r.observe("first_time")
			return ContextSummary{Summary: summaryFirstTime}
		}
		r.countError("get_user")
		log.Printf("resolve %s: get user: %v", callerID, err)
		r.observe("unavailable")
		return ContextSummary{Summary: summaryUnavailable}
	}

	sessions, err := r.store.ListSessions(ctx, callerID)
	if err != nil || len(sessions) == 0 {
		if err != nil {
			r.countError("list_sessions")
			log.Printf("resolve %s: list sessions: %v", callerID, err)
		}
		r.observe("no_sessions")
		return ContextSummary{Summary: summaryNoSessions}
	}

	// The store contract puts the most recent session first.
	recent := sessions[0]

	if out, ok := r.fromSessionMemory(ctx, recent); ok {
		r.observe("memory")
		return out
	}
	r.observe("message_fallback")
	return r.fromRecentMessages(ctx, recent.SessionID)
}

// fromSessionMemory builds a summary from the session's facts and rolling
// summary, falling back to rendered recent messages when both are empty.
// Returns ok=false only when the memory fetch itself failed.
func (r *Resolver) fromSessionMemory(ctx context.Context, session memstore.Session) (ContextSummary, bool) {
	mem, err := r.store.GetSessionMemory(ctx, session.SessionID)
	if err != nil {
		r.countError("get_session_memory")
		log.Printf("resolve: session memory %s: %v", session.SessionID, err)
		return ContextSummary{}, false
	}

	var parts []string
	if len(mem.Facts) > 0 {
		facts := mem.Facts
		if len(facts) > maxFacts {
			facts = facts[:maxFacts]
		}
		texts := make([]string, 0, len(facts))
		for _, f := range facts {
			texts = append(texts, f.Fact)
		}
		parts = append(parts, "Key facts: "+strings.Join(texts, "; "))
	}
	if mem.Summary != nil && mem.Summary.Content != "" {
		parts = append(parts, "Previous conversation: "+mem.Summary.Content)
	}

	summary := strings.Join(parts, " | ")
	if summary == "" {
		msgs, err := r.store.ListMessages(ctx, session.SessionID, maxRecentMessages)
		if err != nil {
			r.countError("list_messages")
			log.Printf("resolve: recent messages %s: %v", session.SessionID, err)
			return ContextSummary{}, false
		}
		if len(msgs) > maxRenderedRecents {
			msgs = msgs[:maxRenderedRecents]
		}
		rendered := make([]string, 0, len(msgs))
		for _, m := range msgs {
			rendered = append(rendered, renderRecent(m))
		}
		summary = "Recent exchange: " + strings.Join(rendered, " | ")
	}

	return ContextSummary{
		IsReturningCaller: true,
		Summary:           summary,
		LastConversation:  lastConversation(session),
	}, true
}

// fromRecentMessages is the narrow fallback for a failed memory fetch: the
// caller is known to have history, so report that much even when nothing
// else can be read.
func (r *Resolver) fromRecentMessages(ctx context.Context, sessionID string) ContextSummary {
	msgs, err := r.store.ListMessages(ctx, sessionID, 5)
	if err != nil || len(msgs) == 0 {
		if err != nil {
			r.countError("list_messages")
			log.Printf("resolve: fallback messages %s: %v", sessionID, err)
		}
		return ContextSummary{IsReturningCaller: true, Summary: summaryOnFile}
	}
	return ContextSummary{
		IsReturningCaller: true,
		Summary:           "Returning caller. Last spoke about: " + clip(msgs[0].Content, lastTopicChars),
	}
}

func renderRecent(m memstore.Message) string {
	speaker := "Agent"
	if m.Role == "user" {
		speaker = "Customer"
	}
	return speaker + ": " + clip(m.Content, recentContentChars)
}

func lastConversation(session memstore.Session) string {
	if session.CreatedAt.IsZero() {
		return "recent"
	}
	return session.CreatedAt.Format(time.RFC3339)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (r *Resolver) observe(tier string) {
	if r.metrics != nil {
		r.metrics.ResolveOutcomes.WithLabelValues(tier).Inc()
	}
}

func (r *Resolver) countError(op string) {
	if r.metrics != nil {
		r.metrics.CollaboratorErrors.WithLabelValues("memory", op).Inc()
	}
}
