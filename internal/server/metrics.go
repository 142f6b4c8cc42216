package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels of dcql_match_requests_total.
const (
	resultMatched   = "matched"
	resultNoMatch   = "no_match"
	resultMalformed = "malformed"
	resultError     = "error"
)

type Metrics struct {
	MatchRequests *prometheus.CounterVec
	MatchDuration prometheus.Histogram
	Credentials   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcql_match_requests_total",
			Help: "Total number of DCQL match requests by result",
		}, []string{"result"}),
		MatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dcql_match_duration_seconds",
			Help:    "Duration of DCQL query evaluation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		Credentials: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dcql_wallet_credentials",
			Help: "Number of credentials held by the wallet",
		}),
	}
}

func (m *Metrics) IncrementMatch(result string) {
	m.MatchRequests.WithLabelValues(result).Inc()
}
