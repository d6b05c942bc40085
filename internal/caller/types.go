package caller

import "errors"

// SessionNamespace prefixes every derived session identity so records from
// this integration are recognizable inside the shared memory service.
const SessionNamespace = "axmen"

// MaxMessageChars is the memory service's per-message content limit.
const MaxMessageChars = 2500

const truncationMarker = "... [truncated]"

// MetadataSource tags identity records created by this integration.
const MetadataSource = "axmen_recycling_agent"

var (
	// ErrNoCaller reports an end-of-call event without a caller number.
	ErrNoCaller = errors.New("caller identity is required")
	// ErrNoCallID reports an end-of-call event without a platform call ID.
	// Persisting without one could scatter a retried call across sessions,
	// so the event is rejected instead.
	ErrNoCallID = errors.New("call id is required")
)

// RawMessage is a transcript turn as the platform delivered it.
type RawMessage struct {
	Role    string
	Content string
}

// ContextSummary is handed to the voice agent to personalize a greeting.
type ContextSummary struct {
	IsReturningCaller bool   `json:"is_returning_caller"`
	Summary           string `json:"summary"`
	LastConversation  string `json:"last_conversation,omitempty"`
	CallerPhone       string `json:"caller_phone,omitempty"`
}

// PersistResult reports what a transcript persistence attempt wrote.
type PersistResult struct {
	SessionID string
	Saved     int
	Truncated int
}

// DeriveSessionID maps one call attempt to exactly one memory session.
// Deterministic on purpose: a redelivered end-of-call event re-derives the
// same identity instead of opening a second session.
func DeriveSessionID(callerID, callID string) string {
	return SessionNamespace + "_" + callerID + "_" + callID
}
