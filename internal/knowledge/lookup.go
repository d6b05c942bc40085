package knowledge

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/axmenrecycling/voicebridge/internal/observability"
)

// Lookup answers material questions from the knowledge base. It never
// returns an error: the voice agent needs a spoken sentence on every path,
// so store failures map to a fixed apology instead of propagating.
type Lookup struct {
	store   Store
	metrics *observability.Metrics

	fallback string
	apology  string
	prompt   string
}

func NewLookup(store Store, metrics *observability.Metrics, shopPhone string) *Lookup {
	return &Lookup{
		store:   store,
		metrics: metrics,
		fallback: "I don't have specific pricing information for that material. " +
			"Please call us at " + shopPhone + " for current pricing.",
		apology: "I'm having trouble looking that up right now. " +
			"Please call us at " + shopPhone + ".",
		prompt: "What material would you like pricing for?",
	}
}

// Answer runs the two-tier search: pricing table first, FAQ table second.
func (l *Lookup) Answer(ctx context.Context, material string) string {
	material = strings.TrimSpace(material)
	if material == "" {
		l.observe("missing_material")
		return l.prompt
	}

	for _, table := range []Table{TablePricing, TableKnowledge} {
		row, err := l.store.FindTop(ctx, table, material)
		if err == nil {
			l.observe(string(table))
			return row.Answer()
		}
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		if l.metrics != nil {
			l.metrics.CollaboratorErrors.WithLabelValues("knowledge", "find_top").Inc()
		}
		log.Printf("lookup %q in %s: %v", material, table, err)
		l.observe("error")
		return l.apology
	}

	l.observe("no_match")
	return l.fallback
}

func (l *Lookup) observe(tier string) {
	if l.metrics != nil {
		l.metrics.KnowledgeLookups.WithLabelValues(tier).Inc()
	}
}
