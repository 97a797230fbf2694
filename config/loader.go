package config

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/openospfd/ospfd/fsm"
	"github.com/openospfd/ospfd/internal/ospflog"
	"github.com/openospfd/ospfd/origin"
	"github.com/openospfd/ospfd/spf"
	"github.com/openospfd/ospfd/wire"
)

// fileConfig is the on-disk shape a snapshot file decodes into, before
// translation into Store calls. Field names follow the YAML/TOML keys an
// operator writes; viper is agnostic to format (yaml, toml, json) as long
// as the extension on configPath matches.
type fileConfig struct {
	RouterID string `mapstructure:"router_id"`

	GracefulRestart struct {
		Enabled bool          `mapstructure:"enabled"`
		Reason  string        `mapstructure:"reason"`
		Period  time.Duration `mapstructure:"period"`
	} `mapstructure:"graceful_restart"`

	RedistributeIn  []uint32 `mapstructure:"redistribute_in"`
	RedistributeOut []uint32 `mapstructure:"redistribute_out"`

	Areas []struct {
		ID          string `mapstructure:"id"`
		Type        string `mapstructure:"type"`
		DefaultCost uint32 `mapstructure:"default_cost"`
		Summaries   bool   `mapstructure:"summaries"`

		Ranges []struct {
			Net       string `mapstructure:"net"`
			Advertise bool   `mapstructure:"advertise"`
		} `mapstructure:"ranges"`

		VirtualLinks []struct {
			Endpoint        string        `mapstructure:"endpoint"`
			HelloInterval   time.Duration `mapstructure:"hello_interval"`
			DeadInterval    time.Duration `mapstructure:"dead_interval"`
			RetransmitDelay time.Duration `mapstructure:"retransmit_delay"`
			TransmitDelay   time.Duration `mapstructure:"transmit_delay"`
		} `mapstructure:"virtual_links"`
	} `mapstructure:"areas"`

	Interfaces []struct {
		Name            string        `mapstructure:"name"`
		Area            string        `mapstructure:"area"`
		Type            string        `mapstructure:"type"`
		Address         string        `mapstructure:"address"`
		Mask            string        `mapstructure:"mask"`
		MTU             int           `mapstructure:"mtu"`
		Priority        uint8         `mapstructure:"priority"`
		HelloInterval   time.Duration `mapstructure:"hello_interval"`
		DeadInterval    time.Duration `mapstructure:"dead_interval"`
		RetransmitDelay time.Duration `mapstructure:"retransmit_delay"`
		TransmitDelay   time.Duration `mapstructure:"transmit_delay"`
		DemandCircuit   bool          `mapstructure:"demand_circuit"`
		Passive         bool          `mapstructure:"passive"`

		StaticNeighbors []struct {
			Address  string `mapstructure:"address"`
			Priority uint8  `mapstructure:"priority"`
		} `mapstructure:"static_neighbors"`
	} `mapstructure:"interfaces"`
}

// networkTypes maps the config file's string spelling to fsm.NetworkType.
var networkTypes = map[string]fsm.NetworkType{
	"broadcast":           fsm.Broadcast,
	"nbma":                fsm.NBMA,
	"point-to-point":      fsm.PointToPoint,
	"point-to-multipoint": fsm.PointToMultipoint,
	"virtual-link":        fsm.VirtualLink,
}

var areaTypes = map[string]origin.AreaType{
	"normal": origin.NormalArea,
	"stub":   origin.StubArea,
	"nssa":   origin.NSSAArea,
}

var restartReasons = map[string]origin.RestartReason{
	"unknown":            origin.ReasonUnknown,
	"software-restart":   origin.ReasonSoftwareRestart,
	"software-upgrade":   origin.ReasonSoftwareUpgrade,
	"switch-to-redundant": origin.ReasonSwitchToRedundant,
}

func parseID(s string) (wire.ID, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return wire.ID{}, fmt.Errorf("config: invalid id %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return wire.ID{}, fmt.Errorf("config: id %q is not a dotted-quad", s)
	}
	return wire.ID{v4[0], v4[1], v4[2], v4[3]}, nil
}

func parseCIDR(s string) (spf.Range, error) {
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return spf.Range{}, fmt.Errorf("config: invalid range %q: %w", s, err)
	}
	v4 := ipnet.IP.To4()
	if v4 == nil {
		return spf.Range{}, fmt.Errorf("config: range %q is not IPv4", s)
	}
	ones, _ := ipnet.Mask.Size()
	var r spf.Range
	copy(r.NetworkAddr[:], v4)
	copy(r.NetworkMask[:], net.CIDRMask(ones, 32))
	return r, nil
}

// A Loader reads snapshot configuration files and applies them to a Store
// as a single round, §6.4.
type Loader struct {
	Store *Store
	log   ospflog.Logger
}

// NewLoader constructs a Loader writing into store.
func NewLoader(store *Store, log ospflog.Logger) *Loader {
	return &Loader{Store: store, log: log}
}

// LoadFile reads path (any format viper supports by extension) and applies
// it to the Loader's Store as one round: every area, range, virtual link,
// interface, and static neighbor not present in the file is removed by the
// matching CommitRound, per §6.4.
func (l *Loader) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	roundID := uuid.New()
	if l.log != nil {
		l.log = l.log.WithField("round", roundID.String())
		l.log.Infof("applying configuration round from %s", path)
	}

	return l.apply(fc)
}

func (l *Loader) apply(fc fileConfig) error {
	s := l.Store
	s.BeginRound()

	if fc.RouterID != "" {
		id, err := parseID(fc.RouterID)
		if err != nil {
			return err
		}
		s.SetRouterID(id)
	}

	reason := restartReasons[fc.GracefulRestart.Reason]
	s.SetGracefulRestart(fc.GracefulRestart.Enabled, reason, fc.GracefulRestart.Period)

	in := make([]PolicyTag, len(fc.RedistributeIn))
	for i, t := range fc.RedistributeIn {
		in[i] = PolicyTag(t)
	}
	out := make([]PolicyTag, len(fc.RedistributeOut))
	for i, t := range fc.RedistributeOut {
		out[i] = PolicyTag(t)
	}
	s.SetRedistributePolicy(in, out)

	for _, ac := range fc.Areas {
		areaID, err := parseID(ac.ID)
		if err != nil {
			return err
		}
		areaType, ok := areaTypes[ac.Type]
		if !ok && ac.Type != "" {
			return fmt.Errorf("config: area %s: unknown type %q", ac.ID, ac.Type)
		}
		s.AddArea(areaID, areaType, ac.DefaultCost)
		if !ac.Summaries {
			if a, ok := s.Area(areaID); ok {
				a.Summaries = false
			}
		}

		for _, rc := range ac.Ranges {
			r, err := parseCIDR(rc.Net)
			if err != nil {
				return err
			}
			r.Advertise = rc.Advertise
			s.AddAreaRange(areaID, rc.Net, r)
		}

		for _, vlc := range ac.VirtualLinks {
			endpoint, err := parseID(vlc.Endpoint)
			if err != nil {
				return err
			}
			s.AddVirtualLink(areaID, endpoint, VirtualLinkConfig{
				HelloInterval:   vlc.HelloInterval,
				DeadInterval:    vlc.DeadInterval,
				RetransmitDelay: vlc.RetransmitDelay,
				TransmitDelay:   vlc.TransmitDelay,
			})
		}
	}

	for _, ic := range fc.Interfaces {
		areaID, err := parseID(ic.Area)
		if err != nil {
			return fmt.Errorf("config: interface %s: %w", ic.Name, err)
		}
		netType, ok := networkTypes[ic.Type]
		if !ok {
			return fmt.Errorf("config: interface %s: unknown type %q", ic.Name, ic.Type)
		}
		addr := net.ParseIP(ic.Address)
		mask := net.ParseIP(ic.Mask)
		if addr == nil || addr.To4() == nil || mask == nil || mask.To4() == nil {
			return fmt.Errorf("config: interface %s: invalid address/mask", ic.Name)
		}

		cfg := InterfaceConfig{
			Name:            ic.Name,
			Area:            areaID,
			Type:            netType,
			MTU:             ic.MTU,
			Priority:        ic.Priority,
			HelloInterval:   ic.HelloInterval,
			DeadInterval:    ic.DeadInterval,
			RetransmitDelay: ic.RetransmitDelay,
			TransmitDelay:   ic.TransmitDelay,
			DemandCircuit:   ic.DemandCircuit,
			Passive:         ic.Passive,
		}
		copy(cfg.Address[:], addr.To4())
		copy(cfg.Mask[:], mask.To4())
		s.AddInterface(cfg)

		for _, nc := range ic.StaticNeighbors {
			nAddr := net.ParseIP(nc.Address)
			if nAddr == nil || nAddr.To4() == nil {
				return fmt.Errorf("config: interface %s: invalid static neighbor %q", ic.Name, nc.Address)
			}
			var a [4]byte
			copy(a[:], nAddr.To4())
			s.AddStaticNeighbor(ic.Name, a, nc.Priority)
		}
	}

	s.CommitRound()
	return nil
}
