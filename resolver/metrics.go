package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_resolver_cache_hits_total",
		Help: "Addresses answered from the resolver cache.",
	})

	lookupsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_resolver_lookups_total",
		Help: "Reverse DNS lookups performed.",
	})

	lookupFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_resolver_lookup_failures_total",
		Help: "Reverse DNS lookups that fell back to the address itself.",
	})

	aliasedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apachelog_resolver_aliased_total",
		Help: "Resolved names replaced by a smart alias.",
	}, []string{"alias"})
)
