package httpapi

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/axmenrecycling/voicebridge/internal/feed"
)

func TestEventFeedDeliversPublishedEvents(t *testing.T) {
	f := newFixture(t)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/events/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if res != nil {
		res.Body.Close()
	}
	defer conn.Close()

	// Subscription registration races the dial returning; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for f.hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.hub.Publish(feed.Event{Kind: "end-of-call-report", Caller: "+14065551234", Detail: "conversation saved"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev feed.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Kind != "end-of-call-report" {
		t.Fatalf("Kind = %q, want %q", ev.Kind, "end-of-call-report")
	}
	if ev.Caller != "+14065551234" {
		t.Fatalf("Caller = %q, want the caller number", ev.Caller)
	}
	if ev.ID == "" {
		t.Fatalf("event ID not stamped")
	}
}

func TestWebhookProcessingPublishesToFeed(t *testing.T) {
	f := newFixture(t)
	events := f.hub.Subscribe()
	defer f.hub.Unsubscribe(events)

	f.post(t, `{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": "abc123", "customer": {"number": "+14065551234"}},
			"messages": [{"role": "user", "message": "hi"}]
		}
	}`)

	select {
	case ev := <-events:
		if ev.Kind != "end-of-call-report" {
			t.Fatalf("Kind = %q, want %q", ev.Kind, "end-of-call-report")
		}
		if !strings.Contains(ev.Detail, "axmen_+14065551234_abc123") {
			t.Fatalf("Detail = %q, want derived session id", ev.Detail)
		}
	case <-time.After(time.Second):
		t.Fatalf("no feed event published")
	}
}
