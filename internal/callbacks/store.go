package callbacks

import (
	"context"
	"time"
)

// Request is a caller's ask for a human callback about a material.
type Request struct {
	ID                  int64
	CallerName          string
	CallerPhone         string
	MaterialDescription string
	Notes               string
	Status              string
	CreatedAt           time.Time
}

// Store persists callback requests for the shop staff queue.
type Store interface {
	Save(ctx context.Context, req Request) (Request, error)
	Close() error
}
