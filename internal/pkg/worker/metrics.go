package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	totalMetrics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docread",
		Subsystem: "worker",
		Name:      "jobs_total",
		Help:      "Jobs by the reached status",
	}, []string{"status"})

	chunkDurationMetrics = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docread",
		Subsystem: "worker",
		Name:      "chunk_synthesis_seconds",
		Help:      "Duration of one chunk synthesis",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)
