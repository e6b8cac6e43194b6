// Package metrics exposes Prometheus instruments for the register.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultCommitted = "committed"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
)

var (
	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopdesk",
		Name:      "commits_total",
		Help:      "Checkout commit attempts by result.",
	}, []string{"result"})

	CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shopdesk",
		Name:      "commit_duration_seconds",
		Help:      "Time spent validating and persisting a sale.",
		Buckets:   prometheus.DefBuckets,
	})

	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopdesk",
		Name:      "catalog_lookups_total",
		Help:      "Catalog cache lookups by outcome.",
	}, []string{"outcome"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopdesk",
		Name:      "events_published_total",
		Help:      "Sale events handed to the broker by result.",
	}, []string{"result"})
)
