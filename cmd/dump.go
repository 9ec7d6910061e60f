package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/rawlink/internal/capture"
	"firestige.xyz/rawlink/internal/log"
	"firestige.xyz/rawlink/pkg/linklayer"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Synchronous Ethernet listener",
	Long: `
Read Ethernet frames in a blocking loop through a capture backend and
print their headers. The backend is selected by capture.backend in the
config: socket (default) or afpacket.

Examples:
  rawlink dump -i eth0
  rawlink dump -i eth0 -p ip -c config.yml
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}
		opts, err := cfg.CaptureOptions()
		if err != nil {
			exitWithError("invalid capture options", err)
		}

		handle, err := capture.NewHandle(capture.Type(cfg.Capture.Backend))
		if err != nil {
			exitWithError("failed to create capture handle", err)
		}
		if err := handle.Open(opts); err != nil {
			exitWithError("failed to open capture handle", err)
		}
		defer handle.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			// Unblock the read loop on interrupt.
			<-ctx.Done()
			handle.Close()
		}()

		logger := log.GetLogger()
		logger.WithFields(map[string]interface{}{
			"backend":   string(handle.Type()),
			"interface": cfg.Interface,
			"protocol":  cfg.Protocol,
		}).Info("capturing")

		for ctx.Err() == nil {
			data, ci, err := handle.ReadPacket()
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				logger.WithError(err).Error("read failed")
				continue
			}
			if len(data) < linklayer.HeaderLen {
				continue
			}
			hdr, _ := linklayer.ParseFrameHeader(data)
			logger.WithFields(map[string]interface{}{
				"type": hdr.Type,
				"dst":  hdr.Dst.String(),
				"src":  hdr.Src.String(),
				"len":  ci.Length,
			}).Info("frame received")
		}
		logger.Info("capture stopped")
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
