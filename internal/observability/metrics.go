// Package observability holds the service's Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics contains the custom counters of the auth service.
type Metrics struct {
	CodesIssued     *prometheus.CounterVec
	CodeSubmissions *prometheus.CounterVec
	AccountsSwept   prometheus.Counter
	SweepFailures   prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CodesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_codes_issued_total",
				Help: "One-time codes issued by purpose",
			},
			[]string{"purpose"},
		),
		CodeSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_code_submissions_total",
				Help: "One-time code submissions by purpose and outcome",
			},
			[]string{"purpose", "outcome"},
		),
		AccountsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_accounts_swept_total",
			Help: "Unverified accounts deleted by the expiry sweeper",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_sweep_failures_total",
			Help: "Sweeper ticks that ended in an error",
		}),
	}
	reg.MustRegister(m.CodesIssued, m.CodeSubmissions, m.AccountsSwept, m.SweepFailures)
	return m
}

// NewRegistry returns a registry with Go runtime and process collectors plus
// the service counters.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, NewMetrics(reg)
}
