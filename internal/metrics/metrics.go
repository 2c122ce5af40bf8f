package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline activity per instrument.
type Metrics interface {
	IncRunsStarted(instrument string)
	IncRunsCompleted(instrument, status string)
	IncPublishSkipped(instrument string)
	IncAuditFailures()
}

// Run completion statuses.
const (
	StatusPublished = "published"
	StatusSkipped   = "skipped"
	StatusDryRun    = "dry_run"
	StatusOffline   = "offline"
	StatusFailed    = "failed"
)

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncRunsStarted(string)           {}
func (Noop) IncRunsCompleted(string, string) {}
func (Noop) IncPublishSkipped(string)        {}
func (Noop) IncAuditFailures()               {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	runsStarted    *prometheus.CounterVec
	runsCompleted  *prometheus.CounterVec
	publishSkipped *prometheus.CounterVec
	auditFailures  prometheus.Counter
	once           sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Pipeline runs started by instrument",
		}, []string{"instrument"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Pipeline runs completed by instrument and status",
		}, []string{"instrument", "status"}),
		publishSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_skipped_total",
			Help:      "Publishes skipped because the destination key already existed",
		}, []string{"instrument"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit record appends that failed and were swallowed",
		}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.runsStarted, p.runsCompleted, p.publishSkipped, p.auditFailures)
	})
}

func (p *Prom) IncRunsStarted(instrument string) {
	p.runsStarted.WithLabelValues(instrument).Inc()
}

func (p *Prom) IncRunsCompleted(instrument, status string) {
	p.runsCompleted.WithLabelValues(instrument, status).Inc()
}

func (p *Prom) IncPublishSkipped(instrument string) {
	p.publishSkipped.WithLabelValues(instrument).Inc()
}

func (p *Prom) IncAuditFailures() {
	p.auditFailures.Inc()
}
