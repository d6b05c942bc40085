package memstore

import (
	"fmt"
	"strings"
	"time"
)

// NewStore creates the memory backend selected by mode: "api" for the hosted
// service, "mock" for in-process, "auto" picks api when a key is present.
func NewStore(mode, baseURL, apiKey string, timeout time.Duration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "api":
		return NewHTTPStore(HTTPConfig{BaseURL: baseURL, APIKey: apiKey, Timeout: timeout}), nil
	case "mock":
		return NewMockStore(), nil
	case "", "auto":
		if strings.TrimSpace(apiKey) != "" {
			return NewHTTPStore(HTTPConfig{BaseURL: baseURL, APIKey: apiKey, Timeout: timeout}), nil
		}
		return NewMockStore(), nil
	default:
		return nil, fmt.Errorf("invalid memory backend mode: %q", mode)
	}
}
