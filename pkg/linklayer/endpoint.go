package linklayer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ErrInterfaceNotFound is returned when a non-empty interface name does
// not resolve to an existing network interface.
var ErrInterfaceNotFound = errors.New("network interface does not exist")

// AddrLen is the size of the underlying sockaddr_ll record.
const AddrLen = unix.SizeofSockaddrLinklayer

// Endpoint is an immutable value identifying a raw link-layer socket
// target: an interface index plus an EtherType filter, or the source
// address of a received frame. It wraps a fixed-size sockaddr_ll record
// and is copied by value; two endpoints are equal iff their records are
// bit-equal, so Endpoint works as a map key.
type Endpoint struct {
	addr  unix.RawSockaddrLinklayer
	proto Protocol
}

// NewEndpoint builds an endpoint matching the given EtherType on all
// interfaces.
func NewEndpoint(etherType uint16) Endpoint {
	proto := NewProtocol(etherType)
	return Endpoint{
		addr: unix.RawSockaddrLinklayer{
			Family:   unix.AF_PACKET,
			Protocol: proto.Number(),
			Hatype:   unix.ARPHRD_ETHER,
		},
		proto: proto,
	}
}

// InterfaceEndpoint builds an endpoint bound to a named interface. An
// empty name means all interfaces. A non-empty name that does not
// resolve fails with ErrInterfaceNotFound.
func InterfaceEndpoint(ifname string, etherType uint16) (Endpoint, error) {
	ep := NewEndpoint(etherType)
	if ifname == "" {
		return ep, nil
	}
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return Endpoint{}, fmt.Errorf("interface %q: %w", ifname, ErrInterfaceNotFound)
	}
	ep.addr.Ifindex = int32(iface.Index)
	return ep, nil
}

// EndpointFromSockaddr rebuilds an endpoint from a raw sockaddr_ll
// record, typically the source address of a received frame when
// addressing a reply.
func EndpointFromSockaddr(addr unix.RawSockaddrLinklayer) Endpoint {
	return Endpoint{
		addr:  addr,
		proto: protocolFromWire(addr.Protocol),
	}
}

// WithHardwareAddr returns a copy of the endpoint addressed to a
// specific destination MAC.
func (e Endpoint) WithHardwareAddr(hw net.HardwareAddr) Endpoint {
	out := e
	n := copy(out.addr.Addr[:], hw)
	out.addr.Halen = uint8(n)
	return out
}

// Protocol returns the protocol associated with the endpoint.
func (e Endpoint) Protocol() Protocol {
	return e.proto
}

// Bytes returns the sockaddr_ll record as a fixed-size byte blob, laid
// out exactly as the kernel struct.
func (e Endpoint) Bytes() []byte {
	b := make([]byte, 0, AddrLen)
	b = binary.NativeEndian.AppendUint16(b, e.addr.Family)
	b = binary.NativeEndian.AppendUint16(b, e.addr.Protocol)
	b = binary.NativeEndian.AppendUint32(b, uint32(e.addr.Ifindex))
	b = binary.NativeEndian.AppendUint16(b, e.addr.Hatype)
	b = append(b, e.addr.Pkttype, e.addr.Halen)
	b = append(b, e.addr.Addr[:]...)
	return b
}

// Size returns the size of the address record.
func (e Endpoint) Size() int {
	return AddrLen
}

// Capacity returns the capacity of the address record. The record has
// a fixed layout, so capacity always equals size.
func (e Endpoint) Capacity() int {
	return AddrLen
}

// Resize is part of the endpoint contract for variable-length address
// families. sockaddr_ll is fixed-size, so it only validates the request.
func (e Endpoint) Resize(n int) error {
	if n > AddrLen {
		return fmt.Errorf("endpoint size %d exceeds capacity %d", n, AddrLen)
	}
	return nil
}

// Sockaddr converts the endpoint into the form expected by bind(2) and
// sendto(2).
func (e Endpoint) Sockaddr() *unix.SockaddrLinklayer {
	sa := &unix.SockaddrLinklayer{
		Protocol: e.addr.Protocol,
		Ifindex:  int(e.addr.Ifindex),
		Hatype:   e.addr.Hatype,
		Pkttype:  e.addr.Pkttype,
		Halen:    e.addr.Halen,
	}
	copy(sa.Addr[:], e.addr.Addr[:])
	return sa
}

// InterfaceIndex returns the interface index, zero meaning all
// interfaces.
func (e Endpoint) InterfaceIndex() int {
	return int(e.addr.Ifindex)
}

// HardwareAddr returns the hardware address carried by the record, nil
// when none is set.
func (e Endpoint) HardwareAddr() net.HardwareAddr {
	if e.addr.Halen == 0 {
		return nil
	}
	hw := make(net.HardwareAddr, e.addr.Halen)
	copy(hw, e.addr.Addr[:e.addr.Halen])
	return hw
}

// Equal reports whether both endpoints hold bit-equal address records.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.addr == o.addr
}

// Compare orders endpoints by the raw bytes of their address records,
// consistent with Equal. The result is -1, 0 or +1.
func (e Endpoint) Compare(o Endpoint) int {
	return bytes.Compare(e.Bytes(), o.Bytes())
}

// Less reports whether e sorts before o.
func (e Endpoint) Less(o Endpoint) bool {
	return e.Compare(o) < 0
}

func (e Endpoint) String() string {
	if hw := e.HardwareAddr(); hw != nil {
		return fmt.Sprintf("ll:%s/if%d/%s", e.proto, e.addr.Ifindex, hw)
	}
	return fmt.Sprintf("ll:%s/if%d", e.proto, e.addr.Ifindex)
}
