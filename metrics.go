package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_records_dropped_total",
		Help: "Parsed records dropped by filters.",
	})

	printedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_records_printed_total",
		Help: "Records written to the output.",
	})
)

func setUpMetricServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return http.ListenAndServe(addr, mux)
}
