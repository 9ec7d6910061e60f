package capture

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"

	"firestige.xyz/rawlink/internal/log"
	"firestige.xyz/rawlink/internal/utils"
)

// afpacketHandle captures through a TPACKET_V3 memory-mapped ring.
type afpacketHandle struct {
	tpacket *afpacket.TPacket
	stats   Stats
}

func newAFPacketHandle() Handle {
	return &afpacketHandle{}
}

func (h *afpacketHandle) Open(opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Interface == "" {
		return fmt.Errorf("afpacket capture requires an interface name")
	}

	iface, err := net.InterfaceByName(opts.Interface)
	if err != nil {
		return fmt.Errorf("failed to get interface %s: %w", opts.Interface, err)
	}

	frameSize, blockSize, numBlocks, err := computeFrameSizeAndBlocks(opts)
	if err != nil {
		return fmt.Errorf("failed to compute frame size and blocks: %w", err)
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"interface":  iface.Name,
		"index":      iface.Index,
		"frame_size": frameSize,
		"block_size": blockSize,
		"num_blocks": numBlocks,
	}).Debug("tpacket configuration")

	tpacket, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface.Name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(time.Duration(opts.TimeoutMs)*time.Millisecond),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return fmt.Errorf("failed to create TPacket: %w", err)
	}

	if opts.Filter != "" {
		prog, err := utils.CompileFilter(opts.Filter)
		if err != nil {
			tpacket.Close()
			return fmt.Errorf("compile filter: %w", err)
		}
		if err := tpacket.SetBPF(prog); err != nil {
			tpacket.Close()
			return fmt.Errorf("failed to set filter: %w", err)
		}
	}

	h.tpacket = tpacket
	return nil
}

func computeFrameSizeAndBlocks(opts *Options) (frameSize, blockSize, numBlocks int, err error) {
	pageSize := os.Getpagesize()
	if opts.SnapLen < pageSize {
		frameSize = pageSize / (pageSize / opts.SnapLen)
	} else {
		frameSize = (opts.SnapLen/pageSize + 1) * pageSize
	}
	blockSize = frameSize * 128
	numBlocks = opts.BufferSizeMB * 1024 * 1024 / blockSize

	if numBlocks < 1 {
		return 0, 0, 0, fmt.Errorf("buffer size too small for frame size %d", frameSize)
	}
	return frameSize, blockSize, numBlocks, nil
}

func (h *afpacketHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	var ci gopacket.CaptureInfo
	if h.tpacket == nil {
		return nil, ci, fmt.Errorf("handle not opened")
	}

	data, ci, err := h.tpacket.ZeroCopyReadPacketData()
	if err != nil {
		h.stats.Errors++
		return nil, ci, err
	}

	h.stats.PacketsReceived++
	return data, ci, nil
}

func (h *afpacketHandle) Close() error {
	if h.tpacket != nil {
		h.tpacket.Close()
		h.tpacket = nil
	}
	return nil
}

func (h *afpacketHandle) Type() Type {
	return TypeAFPacket
}

// GetStats returns the handle counters.
func (h *afpacketHandle) GetStats() Stats {
	return h.stats
}
