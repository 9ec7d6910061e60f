package linklayer

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/net/bpf"
)

var (
	// ErrReceivePending reports an AsyncReceive issued while a previous
	// one is still outstanding. The receive buffer is shared, so only
	// one receive may target it at a time.
	ErrReceivePending = errors.New("receive already pending")

	// ErrFrameTooShort reports a send payload shorter than the frame
	// header while the destination must be derived from it.
	ErrFrameTooShort = errors.New("frame shorter than header")
)

// SendMode selects how AsyncSend addresses outgoing frames.
type SendMode int

const (
	// SendToFrameDest derives the destination from the hardware
	// address embedded in the outgoing frame header. This is the
	// default: a reply goes where its own header says.
	SendToFrameDest SendMode = iota

	// SendToBound sends to the server's bound endpoint as-is.
	SendToBound
)

// ReceiveHandler is invoked on the loop goroutine when a receive
// completes. n bytes of the server buffer are valid, even when err is
// set by a transient socket error. Re-arming is the handler's decision.
type ReceiveHandler func(err error, n int)

// SendHandler is invoked on the loop goroutine when a send completes.
type SendHandler func(err error, n int)

// Options configures an AsyncServer.
type Options struct {
	// SendMode selects the destination policy, SendToFrameDest by
	// default.
	SendMode SendMode

	// Filter is an optional in-kernel filter attached at
	// construction.
	Filter []bpf.RawInstruction
}

// AsyncServer owns one bound raw link-layer socket and one MTU-sized
// receive buffer, and runs receive and send operations asynchronously
// with completions dispatched on a Loop. Sends each own an independent
// copy of their payload, so the caller's buffer may be reused as soon
// as AsyncSend returns.
type AsyncServer struct {
	loop     *Loop
	sock     PacketSocket
	endpoint Endpoint
	mode     SendMode

	buf         [MTU]byte
	recvPending atomic.Bool
	remote      Endpoint
}

// NewAsyncServer builds the endpoint for the interface name (empty
// means all interfaces), opens and binds a raw socket and attaches the
// optional filter. Construction failures are final: no partially
// usable server is returned.
func NewAsyncServer(loop *Loop, ifname string, etherType uint16, opts *Options) (*AsyncServer, error) {
	if opts == nil {
		opts = &Options{}
	}
	ep, err := InterfaceEndpoint(ifname, etherType)
	if err != nil {
		return nil, err
	}
	sock, err := OpenSocket(ep.Protocol())
	if err != nil {
		return nil, err
	}
	if err := sock.Bind(ep); err != nil {
		sock.Close()
		return nil, err
	}
	if len(opts.Filter) > 0 {
		if err := sock.SetBPF(opts.Filter); err != nil {
			sock.Close()
			return nil, err
		}
	}
	return newAsyncServer(loop, ep, sock, opts), nil
}

func newAsyncServer(loop *Loop, ep Endpoint, sock PacketSocket, opts *Options) *AsyncServer {
	return &AsyncServer{
		loop:     loop,
		sock:     sock,
		endpoint: ep,
		mode:     opts.SendMode,
	}
}

// AsyncReceive arms exactly one receive into the server buffer and
// returns immediately. The handler runs on the loop goroutine once the
// socket delivers a frame. A truncated oversize frame is not an error:
// the handler sees a successful completion with the buffer full.
func (s *AsyncServer) AsyncReceive(h ReceiveHandler) error {
	if !s.recvPending.CompareAndSwap(false, true) {
		return ErrReceivePending
	}
	go func() {
		n, from, err := s.sock.ReadFrom(s.buf[:])
		if errors.Is(err, ErrOversizeDatagram) {
			n = len(s.buf)
			err = nil
		}
		s.loop.Post(func() {
			s.recvPending.Store(false)
			s.remote = from
			h(err, n)
		})
	}()
	return nil
}

// AsyncSend clones data into a buffer owned by the pending operation
// and returns immediately; the caller may reuse its slice right away.
// The destination follows the server's SendMode. The handler runs on
// the loop goroutine when the socket write completes, after which the
// owned copy is unreachable and collected.
func (s *AsyncServer) AsyncSend(data []byte, h SendHandler) error {
	dst := s.endpoint
	if s.mode == SendToFrameDest {
		hdr, err := ParseFrameHeader(data)
		if err != nil {
			return fmt.Errorf("derive destination: %w", ErrFrameTooShort)
		}
		dst = s.endpoint.WithHardwareAddr(hdr.Dst)
	}
	owned := bytes.Clone(data)
	go func() {
		n, err := s.sock.WriteTo(owned, dst)
		s.loop.Post(func() {
			h(err, n)
		})
	}()
	return nil
}

// Buffer exposes the receive buffer read-only. Contents are valid from
// a receive completion until the next AsyncReceive re-arms the buffer.
func (s *AsyncServer) Buffer() []byte {
	return s.buf[:]
}

// Remote returns the source endpoint of the last completed receive.
// Like Buffer, it is meaningful only between a completion and the next
// AsyncReceive, on the loop goroutine.
func (s *AsyncServer) Remote() Endpoint {
	return s.remote
}

// Endpoint returns the endpoint the server is bound to.
func (s *AsyncServer) Endpoint() Endpoint {
	return s.endpoint
}

// Close releases the socket. Outstanding operations complete with an
// error delivered to their handlers.
func (s *AsyncServer) Close() error {
	return s.sock.Close()
}
