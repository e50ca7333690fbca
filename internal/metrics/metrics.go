// Package metrics exposes prometheus instrumentation for the realtime
// pipeline. Counters live on the default registry; cmd/client serves
// them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsApplied counts change-feed events merged into the store,
	// labeled by scope (sessions, session_messages, notifications,
	// direct_messages) and operation.
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibemap_feed_events_applied_total",
		Help: "Change feed events merged into the local store.",
	}, []string{"scope", "operation"})

	// DuplicatesDropped counts redelivered events discarded by the
	// reconciler's dedup rules.
	DuplicatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibemap_feed_duplicates_dropped_total",
		Help: "Duplicate change feed events dropped.",
	}, []string{"scope"})

	// EnrichmentFailures counts lookups that fell back to a placeholder
	// instead of blocking a merge.
	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibemap_enrichment_failures_total",
		Help: "Entity lookups that degraded to a placeholder.",
	}, []string{"entity"})

	// StaleDrops counts deliveries discarded because their subscription
	// was already torn down.
	StaleDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibemap_feed_stale_drops_total",
		Help: "Feed deliveries dropped after channel teardown.",
	})
)
