package timer

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/openospfd/ospfd/wire"
)

// A Received packet is a single datagram that arrived on one Conn, tagged
// with the receiving interface index so a Dispatcher's consumer can route it
// to the right interface/neighbor state machine.
type Received struct {
	IfIndex int
	Header  wire.Header
	Message wire.Message
	Src     *net.IPAddr
}

// A Dispatcher fans in packet reception from a set of per-interface Conns
// into a single channel, so the rest of the daemon can run one event loop
// instead of one goroutine per interface. Grounded on the teacher's
// errgroup-supervised goroutine-per-socket pattern; golang.org/x/sync/errgroup.
type Dispatcher struct {
	recvC chan Received
}

// NewDispatcher constructs a Dispatcher with the given channel buffer depth.
func NewDispatcher(buf int) *Dispatcher {
	return &Dispatcher{recvC: make(chan Received, buf)}
}

// Received returns the channel Dispatcher delivers incoming packets on.
func (d *Dispatcher) Received() <-chan Received {
	return d.recvC
}

// Add returns a receive loop for conn under ctx that tags every packet it
// reads with ifIndex. The loop returns once ctx is canceled or conn.ReadFrom
// fails permanently.
func (d *Dispatcher) Add(ctx context.Context, ifIndex int, conn *Conn) func() error {
	return func() error {
		for {
			if err := ctx.Err(); err != nil {
				return nil
			}

			h, m, src, err := conn.ReadFrom()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			select {
			case d.recvC <- Received{IfIndex: ifIndex, Header: h, Message: m, Src: src}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Run supervises one receive goroutine per Conn in conns (keyed by interface
// index) until ctx is canceled or any goroutine returns a non-nil error, in
// which case all siblings are canceled and the error is returned.
func Run(ctx context.Context, d *Dispatcher, conns map[int]*Conn) error {
	g, ctx := errgroup.WithContext(ctx)
	for ifIndex, conn := range conns {
		g.Go(d.Add(ctx, ifIndex, conn))
	}
	return g.Wait()
}
