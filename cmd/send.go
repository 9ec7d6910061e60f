package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/rawlink/internal/log"
	"firestige.xyz/rawlink/pkg/linklayer"
)

var (
	sendDst     string
	sendSrc     string
	sendType    string
	sendPayload string
	sendCount   int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Inject an Ethernet frame",
	Long: `
Build one Ethernet frame and inject it on an interface. The source
address defaults to the interface's own hardware address. The payload
is given as a hex string.

Examples:
  rawlink send -i eth0 --dst aa:bb:cc:dd:ee:ff
  rawlink send -i eth0 --dst aa:bb:cc:dd:ee:ff --type 0x88b5 --payload deadbeef
  rawlink send -i eth0 --dst aa:bb:cc:dd:ee:ff --count 10
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if sendCount < 1 {
			exitWithError("count must be at least 1", nil)
		}

		frame, err := buildFrame(cfg.Interface)
		if err != nil {
			exitWithError("failed to build frame", err)
		}
		etherType, err := cfg.EtherType()
		if err != nil {
			exitWithError("invalid protocol", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loop := linklayer.NewLoop()
		srv, err := linklayer.NewAsyncServer(loop, cfg.Interface, etherType, &linklayer.Options{
			SendMode: cfg.ServerSendMode(),
		})
		if err != nil {
			exitWithError("failed to open socket", err)
		}
		defer srv.Close()
		go loop.Run(ctx)

		logger := log.GetLogger()
		done := make(chan struct{})
		remaining := sendCount
		handler := func(err error, n int) {
			if err != nil {
				logger.WithError(err).Error("send failed")
			} else {
				logger.Debugf("sent %d bytes", n)
			}
			remaining--
			if remaining == 0 {
				close(done)
			}
		}

		for i := 0; i < sendCount; i++ {
			if err := srv.AsyncSend(frame, handler); err != nil {
				exitWithError("failed to arm send", err)
			}
		}

		select {
		case <-done:
			logger.Infof("sent %d frame(s) of %d bytes", sendCount, len(frame))
		case <-ctx.Done():
			logger.Warn("interrupted before all sends completed")
		}
	},
}

// buildFrame assembles header and payload from the send flags.
func buildFrame(ifname string) ([]byte, error) {
	dst, err := net.ParseMAC(sendDst)
	if err != nil {
		return nil, fmt.Errorf("invalid destination address %q: %w", sendDst, err)
	}

	src := make(net.HardwareAddr, linklayer.HardwareAddrLen)
	if sendSrc != "" {
		if src, err = net.ParseMAC(sendSrc); err != nil {
			return nil, fmt.Errorf("invalid source address %q: %w", sendSrc, err)
		}
	} else if ifname != "" {
		iface, err := net.InterfaceByName(ifname)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", ifname, linklayer.ErrInterfaceNotFound)
		}
		if len(iface.HardwareAddr) == linklayer.HardwareAddrLen {
			src = iface.HardwareAddr
		}
	}

	frameType, err := linklayer.ParseEtherType(sendType)
	if err != nil {
		return nil, err
	}

	payload, err := hex.DecodeString(sendPayload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload hex: %w", err)
	}
	if linklayer.HeaderLen+len(payload) > linklayer.MTU {
		return nil, fmt.Errorf("frame of %d bytes exceeds MTU %d", linklayer.HeaderLen+len(payload), linklayer.MTU)
	}

	frame := make([]byte, linklayer.HeaderLen+len(payload))
	if err := linklayer.PutFrameHeader(frame, linklayer.FrameHeader{
		Dst:  dst,
		Src:  src,
		Type: frameType,
	}); err != nil {
		return nil, err
	}
	copy(frame[linklayer.HeaderLen:], payload)
	return frame, nil
}

func init() {
	sendCmd.Flags().StringVar(&sendDst, "dst", "", "destination hardware address (required)")
	sendCmd.Flags().StringVar(&sendSrc, "src", "", "source hardware address, defaults to the interface address")
	sendCmd.Flags().StringVar(&sendType, "type", "0x88b5", "frame EtherType")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "", "payload as a hex string")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "number of frames to send")
	sendCmd.MarkFlagRequired("dst")
	rootCmd.AddCommand(sendCmd)
}
