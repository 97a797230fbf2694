package config

import (
	"testing"

	"github.com/openospfd/ospfd/fsm"
	"github.com/openospfd/ospfd/origin"
	"github.com/openospfd/ospfd/spf"
	"github.com/openospfd/ospfd/wire"
)

func TestRoundRemovesUnseenArea(t *testing.T) {
	s := NewStore()

	s.BeginRound()
	s.AddArea(wire.ID{0, 0, 0, 1}, origin.NormalArea, 0)
	s.CommitRound()

	if _, ok := s.Area(wire.ID{0, 0, 0, 1}); !ok {
		t.Fatal("area missing after first round")
	}

	s.BeginRound()
	s.CommitRound()

	if _, ok := s.Area(wire.ID{0, 0, 0, 1}); ok {
		t.Fatal("area not removed by a round that did not re-declare it")
	}
}

func TestRoundKeepsReaffirmedArea(t *testing.T) {
	s := NewStore()
	areaID := wire.ID{0, 0, 0, 1}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	s.CommitRound()

	s.BeginRound()
	s.AddArea(areaID, origin.StubArea, 10)
	s.CommitRound()

	a, ok := s.Area(areaID)
	if !ok {
		t.Fatal("reaffirmed area was removed")
	}
	if a.Type != origin.StubArea || a.DefaultCost != 10 {
		t.Fatalf("area = %+v, want StubArea/10", a)
	}
}

func TestRoundRemovesUnseenRangeButKeepsArea(t *testing.T) {
	s := NewStore()
	areaID := wire.ID{0, 0, 0, 1}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	s.AddAreaRange(areaID, "10.0.0.0/24", spf.Range{NetworkAddr: [4]byte{10, 0, 0, 0}, NetworkMask: [4]byte{255, 255, 255, 0}, Advertise: true})
	s.CommitRound()

	if got := s.Ranges(areaID); len(got) != 1 {
		t.Fatalf("Ranges() = %v, want 1 entry", got)
	}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	s.CommitRound()

	if got := s.Ranges(areaID); len(got) != 0 {
		t.Fatalf("Ranges() after unseen round = %v, want empty", got)
	}
	if _, ok := s.Area(areaID); !ok {
		t.Fatal("area removed even though reaffirmed")
	}
}

func TestRoundRemovesUnseenInterfaceAndItsNeighbors(t *testing.T) {
	s := NewStore()
	areaID := wire.ID{0, 0, 0, 1}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	s.AddInterface(InterfaceConfig{Name: "eth0", Area: areaID, Type: fsm.NBMA})
	s.AddStaticNeighbor("eth0", [4]byte{192, 0, 2, 2}, 1)
	s.CommitRound()

	if len(s.StaticNeighbors("eth0")) != 1 {
		t.Fatal("static neighbor missing after first round")
	}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	s.CommitRound()

	if _, ok := s.Interface("eth0"); ok {
		t.Fatal("interface not removed by a round that did not re-declare it")
	}
	if len(s.StaticNeighbors("eth0")) != 0 {
		t.Fatal("static neighbors not cleaned up with their interface")
	}
}

func TestMD5KeyAddReplaceRemove(t *testing.T) {
	s := NewStore()
	s.BeginRound()
	s.AddInterface(InterfaceConfig{Name: "eth0"})
	s.CommitRound()

	if !s.AddMD5Key("eth0", fsm.Key{KeyID: 1, Key: []byte("secret")}) {
		t.Fatal("AddMD5Key on configured interface failed")
	}
	ifc, _ := s.Interface("eth0")
	if len(ifc.Auth.Keys) != 1 || ifc.Auth.Type != fsm.AuthMD5 {
		t.Fatalf("KeyRing after add = %+v", ifc.Auth)
	}

	if !s.AddMD5Key("eth0", fsm.Key{KeyID: 1, Key: []byte("new-secret")}) {
		t.Fatal("AddMD5Key replace failed")
	}
	if len(ifc.Auth.Keys) != 1 || string(ifc.Auth.Keys[0].Key) != "new-secret" {
		t.Fatalf("KeyRing after replace = %+v, want single updated key", ifc.Auth)
	}

	if !s.RemoveMD5Key("eth0", 1) {
		t.Fatal("RemoveMD5Key failed")
	}
	if len(ifc.Auth.Keys) != 0 {
		t.Fatalf("KeyRing after remove = %+v, want empty", ifc.Auth)
	}

	if s.AddMD5Key("unknown", fsm.Key{KeyID: 1}) {
		t.Fatal("AddMD5Key on unconfigured interface should fail")
	}
}

func TestVirtualLinkRoundTrip(t *testing.T) {
	s := NewStore()
	areaID := wire.ID{0, 0, 0, 2}
	endpoint := wire.ID{10, 10, 10, 10}

	s.BeginRound()
	s.AddArea(areaID, origin.NormalArea, 0)
	if !s.AddVirtualLink(areaID, endpoint, VirtualLinkConfig{HelloInterval: 10}) {
		t.Fatal("AddVirtualLink on configured area failed")
	}
	s.CommitRound()

	a, _ := s.Area(areaID)
	vl, ok := a.VirtualLinks[endpoint]
	if !ok || vl.TransitArea != areaID || vl.Endpoint != endpoint {
		t.Fatalf("virtual link = %+v, want transit area %v endpoint %v", vl, areaID, endpoint)
	}

	s.RemoveVirtualLink(areaID, endpoint)
	if _, ok := a.VirtualLinks[endpoint]; ok {
		t.Fatal("virtual link still present after RemoveVirtualLink")
	}
}
