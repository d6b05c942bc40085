package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/axmenrecycling/voicebridge/internal/caller"
	"github.com/axmenrecycling/voicebridge/internal/callbacks"
	"github.com/axmenrecycling/voicebridge/internal/config"
	"github.com/axmenrecycling/voicebridge/internal/feed"
	"github.com/axmenrecycling/voicebridge/internal/knowledge"
	"github.com/axmenrecycling/voicebridge/internal/observability"
	"github.com/axmenrecycling/voicebridge/internal/webhook"
)

const maxWebhookBody = 4 << 20

// Server routes inbound platform webhooks to the resolver, persister,
// knowledge lookup and callback capture, and feeds processed events to
// dashboard subscribers.
type Server struct {
	cfg       config.Config
	resolver  *caller.Resolver
	persister *caller.Persister
	lookup    *knowledge.Lookup
	callbacks *callbacks.Service
	hub       *feed.Hub
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, resolver *caller.Resolver, persister *caller.Persister, lookup *knowledge.Lookup, cb *callbacks.Service, hub *feed.Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		resolver:  resolver,
		persister: persister,
		lookup:    lookup,
		callbacks: cb,
		hub:       hub,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may watch the event feed
				// unless explicitly opened up via config.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleStatus)
	r.Post("/", s.handleWebhook)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/events/ws", s.handleEventsWS)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "Axmen Recycling Agent Memory Service Running",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"memory_backend":     s.cfg.MemoryBackend,
		"database_connected": s.cfg.DatabaseURL != "",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "Axmen Recycling Phone Agent",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret != "" && r.Header.Get("X-Webhook-Secret") != s.cfg.WebhookSecret {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid webhook secret")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read_error", err.Error())
		return
	}
	defer r.Body.Close()

	payload, err := webhook.Parse(body)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("invalid", "rejected").Inc()
		respondError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	msg := payload.Message
	switch webhook.EventType(msg.Type) {
	case webhook.TypeAssistantStarted:
		s.metrics.WebhookEvents.WithLabelValues(msg.Type, "acknowledged").Inc()
		s.publish(msg.Type, msg.CustomerNumber(), "call started")
		respondJSON(w, http.StatusOK, map[string]any{"status": "acknowledged"})

	case webhook.TypeToolCalls, webhook.TypeFunctionCall:
		s.handleToolCall(r.Context(), w, msg)

	case webhook.TypeEndOfCallReport:
		s.handleEndOfCall(r.Context(), w, msg)

	default:
		s.metrics.WebhookEvents.WithLabelValues(msg.Type, "ignored").Inc()
		respondJSON(w, http.StatusOK, map[string]any{"status": "ignored", "type": msg.Type})
	}
}

func (s *Server) handleToolCall(ctx context.Context, w http.ResponseWriter, msg webhook.Message) {
	tool, ok := msg.FirstToolCall()
	if !ok {
		s.metrics.WebhookEvents.WithLabelValues(msg.Type, "no_tool_calls").Inc()
		respondJSON(w, http.StatusOK, map[string]any{"result": "No tool calls found"})
		return
	}

	phone := msg.CustomerNumber()
	name := tool.FunctionName()
	s.metrics.WebhookEvents.WithLabelValues(msg.Type, name).Inc()

	switch name {
	case "get_caller_history":
		summary := s.resolver.Resolve(ctx, phone)
		s.publish(msg.Type, phone, "caller history resolved")
		respondJSON(w, http.StatusOK, map[string]any{"result": summary})

	case "lookup_material_price":
		material := tool.FirstStringArg("material", "question", "query")
		if material == "" {
			respondJSON(w, http.StatusOK, map[string]any{
				"result": map[string]any{"success": false, "error": "material is required"},
			})
			return
		}
		answer := s.lookup.Answer(ctx, material)
		s.publish(msg.Type, phone, "price lookup: "+material)
		respondJSON(w, http.StatusOK, map[string]any{"result": answer})

	case "save_callback_request":
		req := callbacks.Request{
			CallerName:          tool.FirstStringArg("caller_name", "customer_name", "name"),
			CallerPhone:         tool.FirstStringArg("caller_phone", "customer_phone", "phone"),
			MaterialDescription: tool.FirstStringArg("material_description", "material", "message"),
			Notes:               tool.StringArg("notes"),
		}
		if req.CallerPhone == "" {
			req.CallerPhone = phone
		}
		spoken := s.callbacks.Capture(ctx, req)
		s.publish(msg.Type, req.CallerPhone, "callback request")
		respondJSON(w, http.StatusOK, map[string]any{"result": spoken})

	default:
		log.Printf("webhook: function not implemented: %s", name)
		respondJSON(w, http.StatusOK, map[string]any{"result": "Function not implemented"})
	}
}

func (s *Server) handleEndOfCall(ctx context.Context, w http.ResponseWriter, msg webhook.Message) {
	phone := msg.CustomerNumber()
	if phone == "" || (msg.Transcript == "" && len(msg.Messages) == 0) {
		s.metrics.WebhookEvents.WithLabelValues(msg.Type, "missing_data").Inc()
		respondJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": "missing_data"})
		return
	}

	raw := make([]caller.RawMessage, 0, len(msg.Messages))
	for _, m := range msg.Messages {
		raw = append(raw, caller.RawMessage{Role: m.Role, Content: m.Text()})
	}

	result, err := s.persister.Persist(ctx, phone, msg.CallID(), raw)
	if err != nil {
		if errors.Is(err, caller.ErrNoCaller) || errors.Is(err, caller.ErrNoCallID) {
			s.metrics.WebhookEvents.WithLabelValues(msg.Type, "missing_data").Inc()
			respondJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": "missing_data"})
			return
		}
		s.metrics.WebhookEvents.WithLabelValues(msg.Type, "error").Inc()
		log.Printf("webhook: persist call for %s: %v", phone, err)
		respondError(w, http.StatusInternalServerError, "persist_failed", err.Error())
		return
	}

	s.metrics.WebhookEvents.WithLabelValues(msg.Type, "saved").Inc()
	s.publish(msg.Type, phone, "conversation saved to "+result.SessionID)
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Conversation saved"})
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "event feed not configured")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(events)
	s.metrics.FeedSubscribers.Set(float64(s.hub.SubscriberCount()))
	defer func() {
		s.metrics.FeedSubscribers.Set(float64(s.hub.SubscriberCount()))
	}()

	// Reads are drained only to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) publish(kind, callerID, detail string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(feed.Event{Kind: kind, Caller: callerID, Detail: detail})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
