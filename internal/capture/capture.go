// Package capture provides frame capture handles behind a common
// interface, with a factory selecting the backend.
package capture

import (
	"fmt"

	"github.com/google/gopacket"
)

// Type identifies a capture backend.
type Type string

const (
	// TypeSocket reads frames from a plain bound AF_PACKET socket.
	TypeSocket Type = "socket"

	// TypeAFPacket reads frames from a TPACKET_V3 memory-mapped ring.
	TypeAFPacket Type = "afpacket"
)

// Handle is a capture session on one interface.
type Handle interface {
	// Open binds the handle to the interface described by the options.
	Open(opts *Options) error

	// ReadPacket blocks until one frame arrives. The returned slice is
	// owned by the handle and valid until the next ReadPacket.
	ReadPacket() ([]byte, gopacket.CaptureInfo, error)

	// Close releases the handle.
	Close() error

	// Type reports the backend.
	Type() Type
}

// Options configures a capture handle.
type Options struct {
	Interface    string // empty means all interfaces (socket backend only)
	EtherType    uint16 // host byte order, zero means all protocols
	Filter       string // optional in-kernel filter expression
	SnapLen      int
	BufferSizeMB int
	TimeoutMs    int
}

// DefaultOptions returns the options used when the config omits them.
func DefaultOptions() *Options {
	return &Options{
		SnapLen:      65536,
		BufferSizeMB: 1,
		TimeoutMs:    1000,
	}
}

// Stats counts what a handle has seen.
type Stats struct {
	PacketsReceived uint64
	Errors          uint64
}

// NewHandle creates an unopened handle for the backend.
func NewHandle(t Type) (Handle, error) {
	switch t {
	case TypeSocket:
		return newSocketHandle(), nil
	case TypeAFPacket:
		return newAFPacketHandle(), nil
	default:
		return nil, fmt.Errorf("unsupported capture type: %s", t)
	}
}

// SupportedTypes lists the available backends.
func SupportedTypes() []Type {
	return []Type{TypeSocket, TypeAFPacket}
}

// IsSupported reports whether the backend exists.
func IsSupported(t Type) bool {
	for _, s := range SupportedTypes() {
		if s == t {
			return true
		}
	}
	return false
}
