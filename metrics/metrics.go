// Package metrics exposes Prometheus instrumentation for LSDB size, SPF
// runs, neighbor state transitions, retransmission backlog, and AS-external
// overflow state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter/gauge/histogram this daemon exports, all
// under the ospfd_ prefix. A nil *Metrics is a valid no-op collector: every
// method handles a nil receiver.
type Metrics struct {
	LSDBEntries *prometheus.GaugeVec

	SPFRunsTotal    *prometheus.CounterVec
	SPFRunDuration  *prometheus.HistogramVec

	NeighborTransitionsTotal *prometheus.CounterVec
	NeighborsByState         *prometheus.GaugeVec

	RetransmitQueueDepth *prometheus.GaugeVec

	ASExternalOverflow prometheus.Gauge
	ASExternalLSAs     prometheus.Gauge

	GracefulRestartsTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers every metric against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LSDBEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ospfd_lsdb_entries",
				Help: "Current number of LSAs installed, by scope and LSA type.",
			},
			[]string{"scope", "lsa_type"},
		),
		SPFRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ospfd_spf_runs_total",
				Help: "Total SPF computations run, by area.",
			},
			[]string{"area"},
		),
		SPFRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ospfd_spf_run_duration_seconds",
				Help:    "SPF computation duration in seconds, by area.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"area"},
		),
		NeighborTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ospfd_neighbor_transitions_total",
				Help: "Total neighbor FSM state transitions, by resulting state.",
			},
			[]string{"state"},
		),
		NeighborsByState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ospfd_neighbors_by_state",
				Help: "Current number of neighbors in each FSM state.",
			},
			[]string{"state"},
		),
		RetransmitQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ospfd_retransmit_queue_depth",
				Help: "Current number of LSAs awaiting acknowledgement, by neighbor.",
			},
			[]string{"neighbor"},
		),
		ASExternalOverflow: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ospfd_as_external_overflow",
				Help: "1 if the AS-external LSDB limit is currently exceeded, 0 otherwise.",
			},
		),
		ASExternalLSAs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ospfd_as_external_lsa_count",
				Help: "Current number of self-originated AS-external LSAs.",
			},
		),
		GracefulRestartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ospfd_graceful_restarts_total",
				Help: "Total graceful restarts, by termination reason.",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(
		m.LSDBEntries,
		m.SPFRunsTotal,
		m.SPFRunDuration,
		m.NeighborTransitionsTotal,
		m.NeighborsByState,
		m.RetransmitQueueDepth,
		m.ASExternalOverflow,
		m.ASExternalLSAs,
		m.GracefulRestartsTotal,
	)

	return m
}

// SetLSDBEntries records the current LSA count for one scope/type pair.
func (m *Metrics) SetLSDBEntries(scope, lsaType string, count int) {
	if m == nil {
		return
	}
	m.LSDBEntries.WithLabelValues(scope, lsaType).Set(float64(count))
}

// RecordSPFRun records one completed SPF computation.
func (m *Metrics) RecordSPFRun(area string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SPFRunsTotal.WithLabelValues(area).Inc()
	m.SPFRunDuration.WithLabelValues(area).Observe(durationSeconds)
}

// RecordNeighborTransition records a neighbor FSM reaching newState.
func (m *Metrics) RecordNeighborTransition(newState string) {
	if m == nil {
		return
	}
	m.NeighborTransitionsTotal.WithLabelValues(newState).Inc()
}

// SetNeighborsByState replaces the gauge for one FSM state with count.
func (m *Metrics) SetNeighborsByState(state string, count int) {
	if m == nil {
		return
	}
	m.NeighborsByState.WithLabelValues(state).Set(float64(count))
}

// SetRetransmitQueueDepth records a neighbor's current unacked LSA count.
func (m *Metrics) SetRetransmitQueueDepth(neighbor string, depth int) {
	if m == nil {
		return
	}
	m.RetransmitQueueDepth.WithLabelValues(neighbor).Set(float64(depth))
}

// SetASExternalOverflow records whether the AS-external LSDB limit is
// currently exceeded, per the overflow state tracked in origin.
func (m *Metrics) SetASExternalOverflow(overflowing bool, lsaCount int) {
	if m == nil {
		return
	}
	if overflowing {
		m.ASExternalOverflow.Set(1)
	} else {
		m.ASExternalOverflow.Set(0)
	}
	m.ASExternalLSAs.Set(float64(lsaCount))
}

// RecordGracefulRestart records a graceful restart ending for the given
// reason (e.g. "adjacency_converged", "grace_expired", "topology_changed").
func (m *Metrics) RecordGracefulRestart(reason string) {
	if m == nil {
		return
	}
	m.GracefulRestartsTotal.WithLabelValues(reason).Inc()
}

// NullMetrics returns nil, a no-op Metrics collector.
func NullMetrics() *Metrics {
	return nil
}
