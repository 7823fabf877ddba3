package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	HTTPRequestsTotal *prometheus.CounterVec
	DecisionsTotal    *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leave_decisions_total",
				Help: "Leave request decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
	prometheus.MustRegister(c.HTTPRequestsTotal, c.DecisionsTotal)
	return c
}
