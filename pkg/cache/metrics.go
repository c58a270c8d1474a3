package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks windows served from Redis
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fut_cache_hits_total",
			Help: "Total number of upstream windows served from cache",
		},
	)

	// CacheMisses tracks windows not found in Redis
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fut_cache_misses_total",
			Help: "Total number of upstream window cache misses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fut_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
