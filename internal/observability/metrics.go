package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	WebhookEvents      *prometheus.CounterVec
	CollaboratorErrors *prometheus.CounterVec
	ResolveOutcomes    *prometheus.CounterVec
	MessagesPersisted  prometheus.Counter
	MessagesTruncated  prometheus.Counter
	KnowledgeLookups   *prometheus.CounterVec
	CallbacksSaved     *prometheus.CounterVec
	FeedSubscribers    prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events by type and disposition.",
		}, []string{"type", "disposition"}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Collaborator errors by collaborator and operation.",
		}, []string{"collaborator", "op"}),
		ResolveOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_resolve_outcomes_total",
			Help:      "Caller context resolutions by outcome tier.",
		}, []string{"tier"}),
		MessagesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Normalized transcript messages appended to the memory store.",
		}),
		MessagesTruncated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_truncated_total",
			Help:      "Transcript messages truncated to the memory store length cap.",
		}),
		KnowledgeLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_lookups_total",
			Help:      "Material lookups by resolved tier.",
		}, []string{"tier"}),
		CallbacksSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_requests_total",
			Help:      "Callback capture attempts by outcome.",
		}, []string{"outcome"}),
		FeedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Connected event feed websocket subscribers.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
