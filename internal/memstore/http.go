package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPStore talks to the hosted memory service over its REST API.
type HTTPStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPStore(cfg HTTPConfig) *HTTPStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *HTTPStore) CreateUser(ctx context.Context, user NewUser) (User, error) {
	var created User
	if err := s.do(ctx, http.MethodPost, "/users", user, &created); err != nil {
		return User{}, fmt.Errorf("create user %s: %w", user.UserID, err)
	}
	return created, nil
}

func (s *HTTPStore) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	// Order is part of the contract: the head of the list must be the most
	// recent session. Request it explicitly instead of trusting a default.
	path := "/users/" + url.PathEscape(userID) + "/sessions?order=created_at&asc=false"
	var sessions []Session
	if err := s.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *HTTPStore) GetSessionMemory(ctx context.Context, sessionID string) (Memory, error) {
	var mem Memory
	if err := s.do(ctx, http.MethodGet, "/memory/"+url.PathEscape(sessionID), nil, &mem); err != nil {
		return Memory{}, err
	}
	return mem, nil
}

func (s *HTTPStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	path := "/messages/" + url.PathEscape(sessionID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (s *HTTPStore) AppendMessages(ctx context.Context, sessionID string, msgs []Message) error {
	body := struct {
		Messages []Message `json:"messages"`
	}{Messages: msgs}
	if err := s.do(ctx, http.MethodPost, "/memory/"+url.PathEscape(sessionID), body, nil); err != nil {
		return fmt.Errorf("append %d messages to %s: %w", len(msgs), sessionID, err)
	}
	return nil
}

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+s.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("memory service request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("memory service status %d: %s", res.StatusCode, string(excerpt))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
