package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evreg_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evreg_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evreg_registrations_total",
			Help: "Registration attempts by result",
		},
		[]string{"result"},
	)

	CheckInsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evreg_check_ins_total",
			Help: "Total successful check-ins",
		},
	)

	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evreg_cache_ops_total",
			Help: "Cache operations by kind and result",
		},
		[]string{"op", "result"},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evreg_outbox_lag_seconds",
			Help: "Age of the oldest record in the last published outbox batch",
		},
	)

	OutboxPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evreg_outbox_published_total",
			Help: "Total outbox records published",
		},
	)

	RabbitPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evreg_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evreg_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	NoShowsMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evreg_no_show_events_total",
			Help: "Events whose registered attendees were swept to no-show",
		},
	)
)
