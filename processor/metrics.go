package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var linesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "apachelog_lines_total",
	Help: "Log lines read, by parse result.",
}, []string{"result"})
