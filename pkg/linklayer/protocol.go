// Package linklayer provides raw AF_PACKET socket endpoints and an
// asynchronous frame server for capturing and injecting Ethernet frames
// on a network interface.
package linklayer

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Well-known EtherTypes, host byte order.
const (
	EtherTypeAll  uint16 = unix.ETH_P_ALL
	EtherTypeIPv4 uint16 = unix.ETH_P_IP
	EtherTypeARP  uint16 = unix.ETH_P_ARP
	EtherTypeIPv6 uint16 = unix.ETH_P_IPV6
)

// Protocol describes the socket triple used to open a raw link-layer
// socket: AF_PACKET family, SOCK_RAW type and the EtherType filter.
// The EtherType is converted to network byte order once, at
// construction, and kept that way.
type Protocol struct {
	number uint16 // network byte order
	family int
}

// NewProtocol builds a Protocol for the given EtherType in host byte
// order. Zero means all protocols (ETH_P_ALL).
func NewProtocol(etherType uint16) Protocol {
	if etherType == 0 {
		etherType = EtherTypeAll
	}
	return Protocol{
		number: htons(etherType),
		family: unix.AF_PACKET,
	}
}

// protocolFromWire rebuilds a Protocol from an already network-ordered
// protocol number, e.g. the sll_protocol field of a received source
// address.
func protocolFromWire(number uint16) Protocol {
	return Protocol{
		number: number,
		family: unix.AF_PACKET,
	}
}

// Family returns the socket address family (always AF_PACKET).
func (p Protocol) Family() int {
	if p.family == 0 {
		return unix.AF_PACKET
	}
	return p.family
}

// Type returns the socket type (always SOCK_RAW).
func (p Protocol) Type() int {
	return unix.SOCK_RAW
}

// Number returns the protocol number in network byte order, the form
// expected by socket(2) and sockaddr_ll for AF_PACKET sockets.
func (p Protocol) Number() uint16 {
	return p.number
}

// EtherType returns the protocol number back in host byte order.
func (p Protocol) EtherType() uint16 {
	return htons(p.number)
}

func (p Protocol) String() string {
	switch p.EtherType() {
	case EtherTypeAll:
		return "all"
	case EtherTypeIPv4:
		return "ip"
	case EtherTypeARP:
		return "arp"
	case EtherTypeIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("0x%04x", p.EtherType())
	}
}

// ParseEtherType converts a config-facing protocol name into a
// host-order EtherType. Accepted forms: all, ip, arp, ipv6, a 0x-prefixed
// hexadecimal number or a decimal number.
func ParseEtherType(s string) (uint16, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return EtherTypeAll, nil
	case "ip", "ipv4":
		return EtherTypeIPv4, nil
	case "arp":
		return EtherTypeARP, nil
	case "ip6", "ipv6":
		return EtherTypeIPv6, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown protocol %q: %w", s, err)
	}
	return uint16(v), nil
}

// htons swaps a 16-bit value between host and network byte order.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
