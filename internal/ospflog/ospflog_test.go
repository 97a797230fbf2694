package ospflog

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogsToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.WithField("area", "0.0.0.0").Infof("adjacency formed")

	out := buf.String()
	if !strings.Contains(out, "adjacency formed") {
		t.Fatalf("log output = %q, want it to contain the message", out)
	}
	if !strings.Contains(out, "area=0.0.0.0") {
		t.Fatalf("log output = %q, want it to contain the area field", out)
	}
}

func TestWithFieldsChains(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.WithFields(Fields{"iface": "eth0", "neighbor": "10.0.0.2"}).Warnf("retransmit count high")

	out := buf.String()
	for _, want := range []string{"iface=eth0", "neighbor=10.0.0.2", "retransmit count high"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output = %q, want it to contain %q", out, want)
		}
	}
}

func TestDiscardDoesNotPanic(t *testing.T) {
	Discard.WithField("x", 1).WithError(nil).Debugf("noop")
}
