package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registrar module.
type Metrics struct {
	// Registration attempts by outcome ("ok", "taken", "not_listed",
	// "underpaid", "error")
	Registrations *prometheus.CounterVec

	// Value disbursed to domain owners and referrers, in minor units
	ValueDisbursed *prometheus.CounterVec

	// Listing lifecycle
	ListingsConfigured prometheus.Counter
	ListingsUnlisted   prometheus.Counter

	// Full register call latency including external provisioning
	RegisterLatency prometheus.Histogram
}

// New creates a Metrics instance with all registrar metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namegate_registrations_total",
			Help: "Total subdomain registration attempts by outcome",
		}, []string{"outcome"}),

		ValueDisbursed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namegate_value_disbursed_minor_units_total",
			Help: "Native-currency value disbursed by recipient role",
		}, []string{"role"}), // role: "owner", "referrer"

		ListingsConfigured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_listings_configured_total",
			Help: "Total configureDomain calls that committed",
		}),

		ListingsUnlisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_listings_unlisted_total",
			Help: "Total unlistDomain calls that committed",
		}),

		RegisterLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "namegate_register_duration_seconds",
			Help:    "Duration of register calls including external provisioning",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncRegistration records a registration outcome.
func (m *Metrics) IncRegistration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

// AddDisbursed records value paid out to a recipient role.
func (m *Metrics) AddDisbursed(role string, amount *big.Int) {
	if m != nil && amount != nil {
		f, _ := new(big.Float).SetInt(amount).Float64()
		m.ValueDisbursed.WithLabelValues(role).Add(f)
	}
}

// IncConfigured records a committed listing configuration.
func (m *Metrics) IncConfigured() {
	if m != nil {
		m.ListingsConfigured.Inc()
	}
}

// IncUnlisted records a committed unlisting.
func (m *Metrics) IncUnlisted() {
	if m != nil {
		m.ListingsUnlisted.Inc()
	}
}

// ObserveRegisterLatency records the duration of a register call.
func (m *Metrics) ObserveRegisterLatency(d time.Duration) {
	if m != nil {
		m.RegisterLatency.Observe(d.Seconds())
	}
}
