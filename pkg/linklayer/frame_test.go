package linklayer

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	h := FrameHeader{
		Dst:  net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Src:  net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
		Type: 0x0800,
	}

	buf := make([]byte, HeaderLen+4)
	require.NoError(t, PutFrameHeader(buf, h))

	got, err := ParseFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h.Dst, got.Dst)
	assert.Equal(t, h.Src, got.Src)
	assert.Equal(t, h.Type, got.Type)
}

func TestFrameHeaderTypeByteOrder(t *testing.T) {
	buf := []byte{
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
		0x08, 0x00, // IPv4 on the wire
	}
	h, err := ParseFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0800), h.Type)
}

func TestFrameHeaderShortInput(t *testing.T) {
	_, err := ParseFrameHeader(make([]byte, HeaderLen-1))
	assert.Error(t, err)

	err = PutFrameHeader(make([]byte, HeaderLen-1), FrameHeader{})
	assert.Error(t, err)
}

func TestFrameHeaderString(t *testing.T) {
	h := FrameHeader{
		Dst:  net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Src:  net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
		Type: 0x0806,
	}
	assert.Equal(t, "type=0x0806 dst=aa:bb:cc:dd:ee:ff src=11:22:33:44:55:66", h.String())
}
