package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = ""

type Metrics struct {
	Txs             *prometheus.CounterVec
	WinningProposal prometheus.Gauge
}

// NewMetrics registers the app collectors on reg. A nil reg leaves them
// unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "txs_total",
			Help:      "Ballot transactions seen by the application, by type and result.",
		}, []string{"type", "result"}),
		WinningProposal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "winning_proposal",
			Help:      "Index of the currently winning proposal.",
		}),
	}
	if reg != nil {
		m.Txs = register(reg, m.Txs)
		m.WinningProposal = register(reg, m.WinningProposal)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func (m *Metrics) observeTx(tp string, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	m.Txs.WithLabelValues(tp, result).Inc()
}
