package linklayer

import (
	"errors"
	"fmt"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// ErrOversizeDatagram reports a frame larger than the receive buffer.
// The kernel truncates the frame; whatever fit in the buffer is valid.
var ErrOversizeDatagram = errors.New("frame larger than receive buffer")

// PacketSocket is the OS boundary of the package: an unconnected raw
// link-layer socket. The interface exists so the async server can be
// exercised without CAP_NET_RAW.
type PacketSocket interface {
	// Bind attaches the socket to the endpoint's interface and
	// protocol filter.
	Bind(ep Endpoint) error

	// ReadFrom blocks until one frame arrives, copies it into buf and
	// returns the byte count with the sender's endpoint. When the
	// frame exceeds len(buf) it returns len(buf) valid bytes and
	// ErrOversizeDatagram.
	ReadFrom(buf []byte) (int, Endpoint, error)

	// WriteTo sends one frame to the endpoint.
	WriteTo(buf []byte, ep Endpoint) (int, error)

	// SetBPF attaches an in-kernel filter to the socket.
	SetBPF(filter []bpf.RawInstruction) error

	// Close releases the socket. Blocked reads and writes complete
	// with an error.
	Close() error
}

type rawSocket struct {
	fd    int
	proto Protocol
}

// OpenSocket opens an unbound AF_PACKET socket for the protocol.
func OpenSocket(proto Protocol) (PacketSocket, error) {
	fd, err := unix.Socket(proto.Family(), proto.Type(), int(proto.Number()))
	if err != nil {
		return nil, fmt.Errorf("open raw socket: %w", err)
	}
	return &rawSocket{fd: fd, proto: proto}, nil
}

func (s *rawSocket) Bind(ep Endpoint) error {
	if err := unix.Bind(s.fd, ep.Sockaddr()); err != nil {
		return fmt.Errorf("bind raw socket to %s: %w", ep, err)
	}
	return nil
}

func (s *rawSocket) ReadFrom(buf []byte) (int, Endpoint, error) {
	// MSG_TRUNC makes the kernel report the real frame length so a
	// truncated delivery is distinguishable from a full one.
	n, from, err := unix.Recvfrom(s.fd, buf, unix.MSG_TRUNC)
	if err != nil {
		return 0, Endpoint{}, fmt.Errorf("receive frame: %w", err)
	}
	var remote Endpoint
	if sa, ok := from.(*unix.SockaddrLinklayer); ok {
		remote = endpointFromRecvAddr(sa)
	}
	if n > len(buf) {
		return len(buf), remote, ErrOversizeDatagram
	}
	return n, remote, nil
}

func (s *rawSocket) WriteTo(buf []byte, ep Endpoint) (int, error) {
	if err := unix.Sendto(s.fd, buf, 0, ep.Sockaddr()); err != nil {
		return 0, fmt.Errorf("send frame to %s: %w", ep, err)
	}
	return len(buf), nil
}

func (s *rawSocket) SetBPF(filter []bpf.RawInstruction) error {
	if len(filter) == 0 {
		return nil
	}
	prog := make([]unix.SockFilter, len(filter))
	for i, ins := range filter {
		prog[i] = unix.SockFilter{
			Code: ins.Op,
			Jt:   ins.Jt,
			Jf:   ins.Jf,
			K:    ins.K,
		}
	}
	fprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}
	if err := unix.SetsockoptSockFprog(s.fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &fprog); err != nil {
		return fmt.Errorf("attach socket filter: %w", err)
	}
	return nil
}

func (s *rawSocket) Close() error {
	return unix.Close(s.fd)
}

// endpointFromRecvAddr rebuilds the sender endpoint from the sockaddr
// returned by recvfrom(2).
func endpointFromRecvAddr(sa *unix.SockaddrLinklayer) Endpoint {
	raw := unix.RawSockaddrLinklayer{
		Family:   unix.AF_PACKET,
		Protocol: sa.Protocol,
		Ifindex:  int32(sa.Ifindex),
		Hatype:   sa.Hatype,
		Pkttype:  sa.Pkttype,
		Halen:    sa.Halen,
	}
	copy(raw.Addr[:], sa.Addr[:])
	return EndpointFromSockaddr(raw)
}
