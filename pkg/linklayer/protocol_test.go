package linklayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestProtocolByteOrder(t *testing.T) {
	p := NewProtocol(0x0800)

	// Stored in network byte order, converted exactly once.
	assert.Equal(t, uint16(0x0008), p.Number())
	assert.Equal(t, uint16(0x0800), p.EtherType())
}

func TestProtocolRoundTrip(t *testing.T) {
	for _, et := range []uint16{EtherTypeAll, EtherTypeIPv4, EtherTypeARP, EtherTypeIPv6, 0x88B5} {
		p := NewProtocol(et)
		assert.Equal(t, et, p.EtherType(), "EtherType 0x%04x must round-trip", et)
		assert.Equal(t, et, htons(p.Number()))
	}
}

func TestProtocolDefaults(t *testing.T) {
	p := NewProtocol(0)
	assert.Equal(t, uint16(EtherTypeAll), p.EtherType())
	assert.Equal(t, unix.AF_PACKET, p.Family())
	assert.Equal(t, unix.SOCK_RAW, p.Type())

	var zero Protocol
	assert.Equal(t, unix.AF_PACKET, zero.Family())
}

func TestParseEtherType(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"all", EtherTypeAll, false},
		{"", EtherTypeAll, false},
		{"ip", EtherTypeIPv4, false},
		{"IPv4", EtherTypeIPv4, false},
		{"arp", EtherTypeARP, false},
		{"ipv6", EtherTypeIPv6, false},
		{"0x88b5", 0x88B5, false},
		{"2048", 0x0800, false},
		{" ip ", EtherTypeIPv4, false},
		{"bogus", 0, true},
		{"0x10000", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseEtherType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestProtocolString(t *testing.T) {
	assert.Equal(t, "ip", NewProtocol(EtherTypeIPv4).String())
	assert.Equal(t, "arp", NewProtocol(EtherTypeARP).String())
	assert.Equal(t, "all", NewProtocol(EtherTypeAll).String())
	assert.Equal(t, "0x88b5", NewProtocol(0x88B5).String())
}
