package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType identifies the platform webhook variants this service consumes.
type EventType string

const (
	TypeAssistantStarted EventType = "assistant.started"
	TypeToolCalls        EventType = "tool-calls"
	TypeFunctionCall     EventType = "function-call"
	TypeEndOfCallReport  EventType = "end-of-call-report"
)

// Payload is the platform's webhook envelope. Every event arrives wrapped in
// a "message" object whose "type" field selects the variant.
type Payload struct {
	Message Message `json:"message"`
}

type Message struct {
	Type         string       `json:"type"`
	Call         *Call        `json:"call,omitempty"`
	ToolCallList []ToolCall   `json:"toolCallList,omitempty"`
	ToolCalls    []ToolCall   `json:"toolCalls,omitempty"`
	Transcript   string       `json:"transcript,omitempty"`
	Messages     []RawMessage `json:"messages,omitempty"`
}

type Call struct {
	ID       string    `json:"id"`
	Customer *Customer `json:"customer,omitempty"`
}

type Customer struct {
	Number string `json:"number"`
}

// ToolCall appears in two shapes depending on platform version: the function
// details nested under "function", or flattened onto the call itself.
type ToolCall struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	Parameters arguments     `json:"parameters,omitempty"`
	Function   *ToolFunction `json:"function,omitempty"`
}

type ToolFunction struct {
	Name      string    `json:"name"`
	Arguments arguments `json:"arguments,omitempty"`
}

// RawMessage is one transcript turn. Older payloads carry the text under
// "message", newer ones under "content"; both are accepted.
type RawMessage struct {
	Role    string `json:"role"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
}

// Text returns the turn's content regardless of which field carried it.
func (m RawMessage) Text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Content
}

// arguments tolerates the platform sending tool arguments either as a JSON
// object or as a JSON-encoded string of one.
type arguments map[string]any

func (a *arguments) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		*a = m
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tool arguments: expected object or string")
	}
	if strings.TrimSpace(s) == "" {
		*a = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return fmt.Errorf("tool arguments string: %w", err)
	}
	*a = m
	return nil
}

// Parse decodes a webhook body. Unknown event types are returned as-is; the
// router decides what to acknowledge.
func Parse(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return p, nil
}

// CustomerNumber digs out the caller's phone number, empty when absent.
func (m Message) CustomerNumber() string {
	if m.Call == nil || m.Call.Customer == nil {
		return ""
	}
	return m.Call.Customer.Number
}

// CallID returns the platform's call identifier, empty when absent.
func (m Message) CallID() string {
	if m.Call == nil {
		return ""
	}
	return m.Call.ID
}

// FirstToolCall returns the first tool call, preferring toolCallList over
// the legacy toolCalls field.
func (m Message) FirstToolCall() (ToolCall, bool) {
	if len(m.ToolCallList) > 0 {
		return m.ToolCallList[0], true
	}
	if len(m.ToolCalls) > 0 {
		return m.ToolCalls[0], true
	}
	return ToolCall{}, false
}

// FunctionName resolves the invoked function's name from either shape.
func (t ToolCall) FunctionName() string {
	if t.Function != nil && t.Function.Name != "" {
		return t.Function.Name
	}
	return t.Name
}

// StringArg returns the named argument as a string, empty when absent or
// not a string.
func (t ToolCall) StringArg(key string) string {
	args := t.Parameters
	if t.Function != nil && len(t.Function.Arguments) > 0 {
		args = t.Function.Arguments
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FirstStringArg returns the first present argument among keys; the platform
// is inconsistent about argument naming across assistant revisions.
func (t ToolCall) FirstStringArg(keys ...string) string {
	for _, key := range keys {
		if v := t.StringArg(key); v != "" {
			return v
		}
	}
	return ""
}
