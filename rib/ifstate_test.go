package rib

import (
	"net"
	"testing"
)

func TestMemoryInterfaceStateUpDown(t *testing.T) {
	m := NewMemoryInterfaceState(4)

	addrs := []VifAddress{{Addr: net.IPv4(192, 0, 2, 1), Mask: net.CIDRMask(24, 32)}}
	m.SetUp("eth0", addrs, 1500)

	snap, ok := m.Snapshot("eth0")
	if !ok {
		t.Fatal("Snapshot: eth0 not found after SetUp")
	}
	if !snap.Enabled || snap.MTU != 1500 || len(snap.Addresses) != 1 {
		t.Fatalf("unexpected snapshot after SetUp: %+v", snap)
	}

	ev := <-m.Events()
	if ev.Kind != InterfaceUp || ev.Name != "eth0" {
		t.Fatalf("event = %+v, want InterfaceUp for eth0", ev)
	}

	m.SetDown("eth0")
	snap, ok = m.Snapshot("eth0")
	if !ok || snap.Enabled {
		t.Fatalf("Snapshot after SetDown = %+v, want Enabled=false", snap)
	}
	ev = <-m.Events()
	if ev.Kind != InterfaceDown {
		t.Fatalf("event kind = %v, want InterfaceDown", ev.Kind)
	}
}

func TestMemoryInterfaceStateAddressChange(t *testing.T) {
	m := NewMemoryInterfaceState(4)
	m.SetUp("eth0", nil, 1500)
	<-m.Events()

	addrs := []VifAddress{{Addr: net.IPv4(198, 51, 100, 1), Mask: net.CIDRMask(24, 32)}}
	m.SetAddresses("eth0", addrs)

	snap, _ := m.Snapshot("eth0")
	if len(snap.Addresses) != 1 || !snap.Addresses[0].Addr.Equal(net.IPv4(198, 51, 100, 1)) {
		t.Fatalf("unexpected addresses after SetAddresses: %+v", snap.Addresses)
	}
	if !snap.Enabled {
		t.Fatal("SetAddresses must not change Enabled")
	}

	ev := <-m.Events()
	if ev.Kind != VifAddressChanged {
		t.Fatalf("event kind = %v, want VifAddressChanged", ev.Kind)
	}

	if _, ok := m.Snapshot("unknown"); ok {
		t.Fatal("Snapshot(unknown) = ok, want not found")
	}
}
