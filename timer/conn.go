// Package timer implements the packet I/O and scheduling layer shared by
// every OSPF interface: raw IP multicast sockets for OSPFv2 and OSPFv3, and
// the timer wheel driving Hello/retransmission/aging events (§5).
package timer

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/openospfd/ospfd/wire"
)

// Fixed header parameters for Conn use, RFC 2328 appendix A.1 / RFC 5340
// appendix A.1.
const (
	tclass   = 0xc0 // DSCP CS6.
	hopLimit = 1
	ttl      = 1
)

var (
	// AllSPFRoutersV4 is the IPv4 multicast group all OSPFv2 routers join.
	AllSPFRoutersV4 = &net.IPAddr{IP: net.ParseIP("224.0.0.5")}
	// AllDRoutersV4 is the IPv4 multicast group OSPFv2 DR/BDR routers join.
	AllDRoutersV4 = &net.IPAddr{IP: net.ParseIP("224.0.0.6")}

	// AllSPFRoutersV6 is the IPv6 multicast group all OSPFv3 routers join.
	AllSPFRoutersV6 = &net.IPAddr{IP: net.ParseIP("ff02::5")}
	// AllDRoutersV6 is the IPv6 multicast group OSPFv3 DR/BDR routers join.
	AllDRoutersV6 = &net.IPAddr{IP: net.ParseIP("ff02::6")}
)

// A Conn can send and receive OSPF packets on one network interface, for
// either protocol Version. Generalized from the teacher's OSPFv3-only,
// ipv6.PacketConn-based Conn to also drive OSPFv2 over ipv4.PacketConn,
// keeping the same multicast-group-join/hop-limit/checksum setup idiom.
type Conn struct {
	version wire.Version
	ifi     *net.Interface
	groups  []*net.IPAddr

	v4 *ipv4.PacketConn
	v6 *ipv6.PacketConn
}

// Listen creates a *Conn for Version v on network interface ifi.
func Listen(ifi *net.Interface, v wire.Version) (*Conn, error) {
	if v == wire.Version3 {
		return listenV6(ifi)
	}
	return listenV4(ifi)
}

func listenV6(ifi *net.Interface) (*Conn, error) {
	conn, err := listenConfig().ListenPacket(context.Background(), "ip6:89", "::")
	if err != nil {
		return nil, fmt.Errorf("timer: failed to listen for OSPFv3: %w", err)
	}
	c := ipv6.NewPacketConn(conn)

	if err := c.SetControlMessage(^ipv6.ControlFlags(0), true); err != nil {
		return nil, err
	}
	// The OSPFv3 wire checksum covers an IPv6 pseudo-header; let the kernel
	// compute/verify it the same way UDP/TCP checksums are handled.
	if err := c.SetChecksum(true, 12); err != nil {
		return nil, err
	}
	if err := c.SetHopLimit(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetMulticastHopLimit(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetTrafficClass(tclass); err != nil {
		return nil, err
	}
	if err := c.SetMulticastInterface(ifi); err != nil {
		return nil, err
	}

	groups := []*net.IPAddr{AllSPFRoutersV6}
	if ifi.Flags&net.FlagPointToPoint == 0 {
		groups = append(groups, AllDRoutersV6)
	}
	for _, g := range groups {
		if err := c.JoinGroup(ifi, g); err != nil {
			return nil, err
		}
	}
	if err := c.SetMulticastLoopback(false); err != nil {
		return nil, err
	}

	return &Conn{version: wire.Version3, ifi: ifi, groups: groups, v6: c}, nil
}

func listenV4(ifi *net.Interface) (*Conn, error) {
	conn, err := listenConfig().ListenPacket(context.Background(), "ip4:89", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("timer: failed to listen for OSPFv2: %w", err)
	}
	c := ipv4.NewPacketConn(conn)

	if err := c.SetControlMessage(^ipv4.ControlFlags(0), true); err != nil {
		return nil, err
	}
	if err := c.SetTTL(ttl); err != nil {
		return nil, err
	}
	if err := c.SetMulticastTTL(ttl); err != nil {
		return nil, err
	}
	if err := c.SetMulticastInterface(ifi); err != nil {
		return nil, err
	}

	groups := []*net.IPAddr{AllSPFRoutersV4}
	if ifi.Flags&net.FlagPointToPoint == 0 {
		groups = append(groups, AllDRoutersV4)
	}
	for _, g := range groups {
		if err := c.JoinGroup(ifi, g); err != nil {
			return nil, err
		}
	}
	if err := c.SetMulticastLoopback(false); err != nil {
		return nil, err
	}

	return &Conn{version: wire.Version2, ifi: ifi, groups: groups, v4: c}, nil
}

// Close closes the Conn's underlying network connection, leaving any joined
// multicast groups first.
func (c *Conn) Close() error {
	for _, g := range c.groups {
		if c.version == wire.Version3 {
			if err := c.v6.LeaveGroup(c.ifi, g); err != nil {
				return err
			}
		} else if err := c.v4.LeaveGroup(c.ifi, g); err != nil {
			return err
		}
	}

	if c.version == wire.Version3 {
		return c.v6.Close()
	}
	return c.v4.Close()
}

// SetReadDeadline sets the read deadline associated with the Conn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	if c.version == wire.Version3 {
		return c.v6.SetReadDeadline(t)
	}
	return c.v4.SetReadDeadline(t)
}

// ReadFrom reads a single OSPF packet and returns its Header, Message, and
// source address. It blocks until a timeout occurs or a valid packet is
// read; malformed datagrams are silently skipped, matching the teacher's
// "assume invalid data, keep reading" behavior.
func (c *Conn) ReadFrom() (wire.Header, wire.Message, *net.IPAddr, error) {
	b := make([]byte, c.ifi.MTU)
	for {
		var (
			n   int
			err error
			src net.Addr
		)
		if c.version == wire.Version3 {
			n, _, src, err = c.v6.ReadFrom(b)
		} else {
			n, _, src, err = c.v4.ReadFrom(b)
		}
		if err != nil {
			return wire.Header{}, nil, nil, err
		}

		h, m, err := wire.ParseMessage(b[:n])
		if err != nil {
			continue
		}

		addr, ok := src.(*net.IPAddr)
		if !ok {
			addr = &net.IPAddr{IP: net.ParseIP(src.String())}
		}
		return h, m, addr, nil
	}
}

// WriteTo writes a single OSPF Header+Message to the specified destination
// address or multicast group.
func (c *Conn) WriteTo(h wire.Header, m wire.Message, dst *net.IPAddr) error {
	b, err := wire.MarshalMessage(h, m)
	if err != nil {
		return err
	}

	if c.version == wire.Version3 {
		_, err = c.v6.WriteTo(b, nil, dst)
	} else {
		_, err = c.v4.WriteTo(b, nil, dst)
	}
	return err
}
