package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetricsRegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetLSDBEntries("area", "router", 3)
	m.RecordSPFRun("0.0.0.0", 0.01)
	m.RecordNeighborTransition("Full")
	m.SetNeighborsByState("Full", 2)
	m.SetRetransmitQueueDepth("192.0.2.1", 1)
	m.SetASExternalOverflow(true, 5)
	m.RecordGracefulRestart("grace_expired")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	want := map[string]bool{
		"ospfd_lsdb_entries":               false,
		"ospfd_spf_runs_total":             false,
		"ospfd_spf_run_duration_seconds":   false,
		"ospfd_neighbor_transitions_total": false,
		"ospfd_neighbors_by_state":         false,
		"ospfd_retransmit_queue_depth":     false,
		"ospfd_as_external_overflow":       false,
		"ospfd_as_external_lsa_count":      false,
		"ospfd_graceful_restarts_total":    false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestNilMetricsNoPanic(t *testing.T) {
	var m *Metrics
	m.SetLSDBEntries("area", "router", 1)
	m.RecordSPFRun("0.0.0.0", 0.01)
	m.RecordNeighborTransition("Full")
	m.SetNeighborsByState("Full", 1)
	m.SetRetransmitQueueDepth("192.0.2.1", 1)
	m.SetASExternalOverflow(false, 0)
	m.RecordGracefulRestart("adjacency_converged")

	if NullMetrics() != nil {
		t.Fatal("NullMetrics() must return nil")
	}
}
