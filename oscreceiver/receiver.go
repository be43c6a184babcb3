// Package oscreceiver implements the OSC Receiver (C5): a UDP listener that
// decodes inbound datagrams into (address, values) tuples via the go-osc
// wire codec and hands accepted ones to an injected sink, after the
// Subscription Filter has had a say.
package oscreceiver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
)

// lc is the ListenConfig used for binding, so Listen can be cancelled via
// ctx while the bind is in flight (the orchestrator needs this to abort an
// in-progress Start).
var lc net.ListenConfig

// Sink receives an accepted OSC message. The receiver does not interpret
// the payload; that is the external router's job.
type Sink func(address string, args []interface{})

// Filterer decides whether an inbound address should reach the Sink. The
// receiver only needs the read side of the Subscription Filter; taking an
// interface instead of the concrete type keeps the locking discipline the
// caller's problem, since the filter is mutated from a different goroutine
// than the one that calls Accepts on every datagram.
type Filterer interface {
	Accepts(address string) bool
}

// Receiver owns the UDP socket and the decode loop. Errors decoding a single
// datagram are logged and the datagram dropped; the socket stays open.
type Receiver struct {
	conn   net.PacketConn
	filter Filterer
	sink   Sink
	logger *slog.Logger
}

// Listen binds a UDP socket on host:port and returns a Receiver ready to
// Serve. ctx governs the bind itself, not the socket's lifetime: once Listen
// returns, ctx can be safely discarded and Close is what releases the
// socket. The caller owns the Receiver's lifetime and must call Close.
func Listen(ctx context.Context, host string, port int, filter Filterer, sink Sink, logger *slog.Logger) (*Receiver, error) {
	conn, err := lc.ListenPacket(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &Receiver{conn: conn, filter: filter, sink: sink, logger: logger}, nil
}

// LocalPort returns the bound UDP port, useful when the caller requested
// port 0 and wants to know what the OS assigned.
func (r *Receiver) LocalPort() int {
	if a, ok := r.conn.LocalAddr().(*net.UDPAddr); ok {
		return a.Port
	}
	return 0
}

// Serve runs the decode loop until ctx is done or the socket is closed.
// Malformed datagrams are logged at Warn and dropped; a read error after
// ctx is done is treated as the expected result of Close and returns nil.
func (r *Receiver) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = r.conn.Close() })
	defer stop()
	buf := make([]byte, 65535)
	for {
		n, _, err := r.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.logger.Warn("osc receive error", "error", err)
			continue
		}

		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			r.logger.Warn("malformed osc datagram", "error", err)
			continue
		}
		r.dispatch(packet)
	}
}

// Close closes the UDP socket, unblocking any in-flight Serve call.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

func (r *Receiver) dispatch(p osc.Packet) {
	switch v := p.(type) {
	case *osc.Message:
		r.deliver(v)
	case *osc.Bundle:
		for _, m := range v.Messages {
			r.deliver(m)
		}
	}
}

func (r *Receiver) deliver(m *osc.Message) {
	if r.filter != nil && !r.filter.Accepts(m.Address) {
		return
	}
	if r.sink != nil {
		r.sink(m.Address, m.Arguments)
	}
}

