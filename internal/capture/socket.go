package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"

	"firestige.xyz/rawlink/internal/utils"
	"firestige.xyz/rawlink/pkg/linklayer"
)

// socketHandle captures through a bound raw link-layer socket, one
// frame per read.
type socketHandle struct {
	sock  linklayer.PacketSocket
	buf   [linklayer.MTU]byte
	stats Stats
}

func newSocketHandle() Handle {
	return &socketHandle{}
}

func (h *socketHandle) Open(opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	ep, err := linklayer.InterfaceEndpoint(opts.Interface, opts.EtherType)
	if err != nil {
		return err
	}
	sock, err := linklayer.OpenSocket(ep.Protocol())
	if err != nil {
		return err
	}
	if err := sock.Bind(ep); err != nil {
		sock.Close()
		return err
	}
	if opts.Filter != "" {
		prog, err := utils.CompileFilter(opts.Filter)
		if err != nil {
			sock.Close()
			return fmt.Errorf("compile filter: %w", err)
		}
		if err := sock.SetBPF(prog); err != nil {
			sock.Close()
			return err
		}
	}

	h.sock = sock
	return nil
}

func (h *socketHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	var ci gopacket.CaptureInfo
	if h.sock == nil {
		return nil, ci, fmt.Errorf("handle not opened")
	}

	n, _, err := h.sock.ReadFrom(h.buf[:])
	truncated := errors.Is(err, linklayer.ErrOversizeDatagram)
	if err != nil && !truncated {
		h.stats.Errors++
		return nil, ci, err
	}

	h.stats.PacketsReceived++
	ci = gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: n,
		Length:        n,
	}
	return h.buf[:n], ci, nil
}

func (h *socketHandle) Close() error {
	if h.sock != nil {
		err := h.sock.Close()
		h.sock = nil
		return err
	}
	return nil
}

func (h *socketHandle) Type() Type {
	return TypeSocket
}

// GetStats returns the handle counters.
func (h *socketHandle) GetStats() Stats {
	return h.stats
}
