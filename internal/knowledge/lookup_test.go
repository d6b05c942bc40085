package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const testPhone = "406-543-1905"

func TestLookupPrefersHigherPriority(t *testing.T) {
	store := NewMockStore()
	store.Add(TablePricing, Row{Question: "aluminum cans", AnswerVoice: "low priority answer", Priority: 5}, true)
	store.Add(TablePricing, Row{Question: "aluminum siding", AnswerVoice: "high priority answer", Priority: 10}, true)
	l := NewLookup(store, nil, testPhone)

	got := l.Answer(context.Background(), "aluminum")
	if got != "high priority answer" {
		t.Fatalf("Answer = %q, want the priority 10 row", got)
	}
}

func TestLookupFallsThroughToKnowledgeTable(t *testing.T) {
	store := NewMockStore()
	store.Add(TableKnowledge, Row{Question: "do you take refrigerators", AnswerVoice: "Yes, with the compressor removed.", Priority: 1}, true)
	l := NewLookup(store, nil, testPhone)

	got := l.Answer(context.Background(), "refrigerators")
	if got != "Yes, with the compressor removed." {
		t.Fatalf("Answer = %q, want secondary table answer", got)
	}
}

func TestLookupPrimaryTableWinsOverSecondary(t *testing.T) {
	store := NewMockStore()
	store.Add(TablePricing, Row{Question: "copper pipe", AnswerVoice: "pricing answer", Priority: 1}, true)
	store.Add(TableKnowledge, Row{Question: "copper pipe", AnswerVoice: "faq answer", Priority: 99}, true)
	l := NewLookup(store, nil, testPhone)

	got := l.Answer(context.Background(), "copper")
	if got != "pricing answer" {
		t.Fatalf("Answer = %q, want the pricing table answer", got)
	}
}

func TestLookupIgnoresInactiveRows(t *testing.T) {
	store := NewMockStore()
	store.Add(TablePricing, Row{Question: "brass fittings", AnswerVoice: "stale answer", Priority: 50}, false)
	l := NewLookup(store, nil, testPhone)

	got := l.Answer(context.Background(), "brass")
	if !strings.Contains(got, testPhone) {
		t.Fatalf("Answer = %q, want fallback with phone number", got)
	}
}

func TestLookupNoMatchReturnsFallback(t *testing.T) {
	l := NewLookup(NewMockStore(), nil, testPhone)

	got := l.Answer(context.Background(), "unobtainium")
	want := "I don't have specific pricing information for that material. Please call us at " + testPhone + " for current pricing."
	if got != want {
		t.Fatalf("Answer = %q, want %q", got, want)
	}
}

func TestLookupStoreErrorReturnsApology(t *testing.T) {
	store := NewMockStore()
	store.FindTopErr = errors.New("connection refused")
	l := NewLookup(store, nil, testPhone)

	got := l.Answer(context.Background(), "aluminum")
	want := "I'm having trouble looking that up right now. Please call us at " + testPhone + "."
	if got != want {
		t.Fatalf("Answer = %q, want %q", got, want)
	}
}

func TestLookupEmptyMaterialAsksForOne(t *testing.T) {
	l := NewLookup(NewMockStore(), nil, testPhone)

	got := l.Answer(context.Background(), "  ")
	if got != "What material would you like pricing for?" {
		t.Fatalf("Answer = %q, want the material prompt", got)
	}
}

func TestRowAnswerPrefersVoicePhrasing(t *testing.T) {
	r := Row{AnswerVoice: "spoken", AnswerLong: "written"}
	if r.Answer() != "spoken" {
		t.Fatalf("Answer() = %q, want voice phrasing", r.Answer())
	}
	r.AnswerVoice = ""
	if r.Answer() != "written" {
		t.Fatalf("Answer() = %q, want long phrasing", r.Answer())
	}
}

func TestMockStoreMatchIsCaseInsensitive(t *testing.T) {
	store := NewMockStore()
	store.Add(TablePricing, Row{Question: "Aluminum Cans", AnswerVoice: "yes", Priority: 1}, true)

	row, err := store.FindTop(context.Background(), TablePricing, "ALUMINUM")
	if err != nil {
		t.Fatalf("FindTop() error = %v", err)
	}
	if row.AnswerVoice != "yes" {
		t.Fatalf("FindTop() answer = %q, want %q", row.AnswerVoice, "yes")
	}
}
