package linklayer

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	// HeaderLen is the length of an Ethernet II frame header: two
	// 6-byte hardware addresses plus the 2-byte EtherType.
	HeaderLen = 14

	// HardwareAddrLen is the length of an Ethernet hardware address.
	HardwareAddrLen = 6

	// MTU is the maximum Ethernet payload handled per operation. The
	// receive buffer is sized to it.
	MTU = 1500
)

// FrameHeader is the decoded 14-byte Ethernet frame header. Nothing
// past the header is interpreted here.
type FrameHeader struct {
	Dst  net.HardwareAddr
	Src  net.HardwareAddr
	Type uint16 // host byte order
}

// ParseFrameHeader decodes the header at the start of b. It fails when
// b is shorter than HeaderLen.
func ParseFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderLen {
		return FrameHeader{}, fmt.Errorf("frame too short: %d bytes, need %d", len(b), HeaderLen)
	}
	h := FrameHeader{
		Dst:  make(net.HardwareAddr, HardwareAddrLen),
		Src:  make(net.HardwareAddr, HardwareAddrLen),
		Type: binary.BigEndian.Uint16(b[12:14]),
	}
	copy(h.Dst, b[0:6])
	copy(h.Src, b[6:12])
	return h, nil
}

// PutFrameHeader encodes h into the first HeaderLen bytes of b.
func PutFrameHeader(b []byte, h FrameHeader) error {
	if len(b) < HeaderLen {
		return fmt.Errorf("buffer too short: %d bytes, need %d", len(b), HeaderLen)
	}
	copy(b[0:6], h.Dst)
	copy(b[6:12], h.Src)
	binary.BigEndian.PutUint16(b[12:14], h.Type)
	return nil
}

func (h FrameHeader) String() string {
	return fmt.Sprintf("type=0x%04x dst=%s src=%s", h.Type, h.Dst, h.Src)
}
