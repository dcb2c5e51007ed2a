package httpapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics do lottery-service; registradas no Registerer informado
type Metrics struct {
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	BetsAccepted  prometheus.Counter
	ExcessCleared prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lottery_http_requests_total", Help: "requisições por rota e status",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "lottery_http_request_duration_seconds", Help: "latência por rota", Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BetsAccepted:  prometheus.NewCounter(prometheus.CounterOpts{Name: "lottery_bets_accepted_total", Help: "apostas gravadas"}),
		ExcessCleared: prometheus.NewCounter(prometheus.CounterOpts{Name: "lottery_excess_corrections_total", Help: "correções de excesso gravadas"}),
	}
	reg.MustRegister(m.Requests, m.Latency, m.BetsAccepted, m.ExcessCleared)
	return m
}
