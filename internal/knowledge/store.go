package knowledge

import (
	"context"
	"errors"
)

// ErrNoMatch reports that no active row matched the query.
var ErrNoMatch = errors.New("knowledge: no match")

// Table selects which knowledge base a query runs against.
type Table string

const (
	// TablePricing holds per-material pricing answers.
	TablePricing Table = "material_pricing"
	// TableKnowledge holds general recycling FAQ answers.
	TableKnowledge Table = "recycle_knowledge"
)

// Row is one answer record. AnswerVoice is phrased for speech; AnswerLong is
// the written fallback when no voice phrasing exists.
type Row struct {
	ID          int64
	Question    string
	Intent      string
	AnswerVoice string
	AnswerLong  string
	Priority    int
}

// Answer picks the spoken phrasing when available.
func (r Row) Answer() string {
	if r.AnswerVoice != "" {
		return r.AnswerVoice
	}
	return r.AnswerLong
}

// Store finds the best active answer for a free-form material query.
//
// FindTop matches the query as a case-insensitive substring of the row's
// question or intent, considers active rows only, and returns the highest
// priority match. Ties fall to the backend's default ordering.
type Store interface {
	FindTop(ctx context.Context, table Table, query string) (Row, error)
	Close() error
}
