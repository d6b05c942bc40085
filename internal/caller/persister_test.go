package caller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/axmenrecycling/voicebridge/internal/memstore"
)

func TestDeriveSessionIDIsDeterministic(t *testing.T) {
	a := DeriveSessionID("+14065551234", "abc123")
	b := DeriveSessionID("+14065551234", "abc123")
	if a != b {
		t.Fatalf("DeriveSessionID not stable: %q vs %q", a, b)
	}
	if a != "axmen_+14065551234_abc123" {
		t.Fatalf("DeriveSessionID = %q, want %q", a, "axmen_+14065551234_abc123")
	}
}

func TestPersistCreatesUserAndAppends(t *testing.T) {
	store := memstore.NewMockStore()
	p := NewPersister(store, nil)

	result, err := p.Persist(context.Background(), "+14065551234", "abc123", []RawMessage{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if result.SessionID != "axmen_+14065551234_abc123" {
		t.Fatalf("SessionID = %q, want derived id", result.SessionID)
	}
	if result.Saved != 1 {
		t.Fatalf("Saved = %d, want 1", result.Saved)
	}

	user, err := store.GetUser(context.Background(), "+14065551234")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Metadata["source"] != MetadataSource {
		t.Fatalf("user source = %q, want %q", user.Metadata["source"], MetadataSource)
	}
	if user.FirstName != "+14065551234" {
		t.Fatalf("user first name = %q, want phone number", user.FirstName)
	}

	msgs := store.Messages(result.SessionID)
	if len(msgs) != 1 {
		t.Fatalf("appended messages = %d, want 1", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hi" {
		t.Fatalf("appended message = %+v, want user/hi", msgs[0])
	}
}

func TestPersistKeepsExistingUser(t *testing.T) {
	store := memstore.NewMockStore()
	if _, err := store.CreateUser(context.Background(), memstore.NewUser{UserID: "+14065551234", FirstName: "Sam"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p := NewPersister(store, nil)

	if _, err := p.Persist(context.Background(), "+14065551234", "abc123", []RawMessage{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	user, _ := store.GetUser(context.Background(), "+14065551234")
	if user.FirstName != "Sam" {
		t.Fatalf("existing user overwritten: FirstName = %q", user.FirstName)
	}
}

func TestPersistEmptyTranscriptIsNoOp(t *testing.T) {
	store := memstore.NewMockStore()
	p := NewPersister(store, nil)

	result, err := p.Persist(context.Background(), "+14065551234", "abc123", []RawMessage{
		{Role: "user", Content: ""},
		{Role: "assistant", Content: ""},
	})
	if err != nil {
		t.Fatalf("Persist() error = %v, want no-op success", err)
	}
	if result.Saved != 0 {
		t.Fatalf("Saved = %d, want 0", result.Saved)
	}
	if got := len(store.Messages(result.SessionID)); got != 0 {
		t.Fatalf("appended messages = %d, want 0", got)
	}
}

func TestPersistRejectsMissingCallID(t *testing.T) {
	p := NewPersister(memstore.NewMockStore(), nil)
	_, err := p.Persist(context.Background(), "+14065551234", "", []RawMessage{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrNoCallID) {
		t.Fatalf("Persist() error = %v, want ErrNoCallID", err)
	}
}

func TestPersistSurfacesUserCreationFailure(t *testing.T) {
	store := memstore.NewMockStore()
	store.CreateUserErr = errors.New("users endpoint down")
	p := NewPersister(store, nil)

	_, err := p.Persist(context.Background(), "+14065551234", "abc123", []RawMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("Persist() error = nil, want user creation failure")
	}
	if !strings.Contains(err.Error(), "users endpoint down") {
		t.Fatalf("error %q does not carry the cause", err)
	}
}

func TestPersistSurfacesAppendFailure(t *testing.T) {
	store := memstore.NewMockStore()
	store.AppendMessagesErr = errors.New("append rejected")
	p := NewPersister(store, nil)

	_, err := p.Persist(context.Background(), "+14065551234", "abc123", []RawMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("Persist() error = nil, want append failure")
	}
	if !strings.Contains(err.Error(), "append rejected") {
		t.Fatalf("error %q does not carry the cause", err)
	}
}

func TestNormalizeTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("a", MaxMessageChars+200)
	normalized, truncated := Normalize([]RawMessage{
		{Role: "user", Content: long},
		{Role: "assistant", Content: "short"},
	})
	if truncated != 1 {
		t.Fatalf("truncated = %d, want 1", truncated)
	}
	if len(normalized) != 2 {
		t.Fatalf("normalized = %d messages, want 2", len(normalized))
	}
	got := normalized[0].Content
	if len(got) > MaxMessageChars {
		t.Fatalf("content length = %d, want <= %d", len(got), MaxMessageChars)
	}
	if !strings.HasSuffix(got, "... [truncated]") {
		t.Fatalf("content does not end with truncation marker: %q", got[len(got)-30:])
	}
	if normalized[1].Content != "short" {
		t.Fatalf("short content changed: %q", normalized[1].Content)
	}
}

func TestNormalizeMapsRoles(t *testing.T) {
	normalized, _ := Normalize([]RawMessage{
		{Role: "assistant", Content: "hello"},
		{Role: "bot", Content: "beep"},
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "hi"},
	})
	wantRoles := []string{"assistant", "user", "user", "user"}
	if len(normalized) != len(wantRoles) {
		t.Fatalf("normalized = %d messages, want %d", len(normalized), len(wantRoles))
	}
	for i, want := range wantRoles {
		if normalized[i].Role != want {
			t.Fatalf("message %d role = %q, want %q", i, normalized[i].Role, want)
		}
		if normalized[i].RoleType != want {
			t.Fatalf("message %d role_type = %q, want %q", i, normalized[i].RoleType, want)
		}
	}
}

func TestPersistIsIdempotentAtSessionLevel(t *testing.T) {
	store := memstore.NewMockStore()
	p := NewPersister(store, nil)
	msgs := []RawMessage{{Role: "user", Content: "hi"}}

	first, err := p.Persist(context.Background(), "+14065551234", "abc123", msgs)
	if err != nil {
		t.Fatalf("first Persist() error = %v", err)
	}
	second, err := p.Persist(context.Background(), "+14065551234", "abc123", msgs)
	if err != nil {
		t.Fatalf("second Persist() error = %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("redelivery derived %q, want %q", second.SessionID, first.SessionID)
	}
}
