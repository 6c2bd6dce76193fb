package account

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks the one-time key lifecycle of an account.
type Metrics struct {
	generated   prometheus.Counter
	evicted     prometheus.Counter
	consumed    prometheus.Counter
	unknown     prometheus.Counter
	published   prometheus.Counter
	stored      prometheus.Gauge
	unpublished prometheus.Gauge
}

// NewMetrics creates the account collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otkeys_one_time_keys_generated_total",
			Help: "Total number of one-time keys generated",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otkeys_one_time_keys_evicted_total",
			Help: "Total number of one-time keys evicted to stay within capacity",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otkeys_one_time_keys_consumed_total",
			Help: "Total number of one-time keys consumed by inbound sessions",
		}),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otkeys_one_time_keys_unknown_total",
			Help: "Total number of lookups for one-time keys not held",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otkeys_one_time_keys_published_total",
			Help: "Total number of one-time keys uploaded to the directory",
		}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "otkeys_one_time_keys_stored",
			Help: "Number of one-time private keys currently held",
		}),
		unpublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "otkeys_one_time_keys_unpublished",
			Help: "Number of one-time keys awaiting upload",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.generated,
			m.evicted,
			m.consumed,
			m.unknown,
			m.published,
			m.stored,
			m.unpublished,
		)
	}
	return m
}
