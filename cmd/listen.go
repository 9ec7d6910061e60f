package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/rawlink/internal/log"
	"firestige.xyz/rawlink/internal/utils"
	"firestige.xyz/rawlink/pkg/linklayer"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Asynchronous Ethernet listener",
	Long: `
Listen for Ethernet frames on an interface and print their headers.
Receives are armed asynchronously and re-armed from the completion
handler until interrupted.

Examples:
  rawlink listen -i eth0              # all protocols on eth0
  rawlink listen -i eth0 -p ip        # IPv4 frames only
  rawlink listen -c config.yml        # everything from the config file
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitWithError("failed to load config", err)
		}
		etherType, err := cfg.EtherType()
		if err != nil {
			exitWithError("invalid protocol", err)
		}
		filter, err := utils.CompileFilter(cfg.Filter)
		if err != nil {
			exitWithError("invalid filter", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loop := linklayer.NewLoop()
		srv, err := linklayer.NewAsyncServer(loop, cfg.Interface, etherType, &linklayer.Options{
			SendMode: cfg.ServerSendMode(),
			Filter:   filter,
		})
		if err != nil {
			exitWithError("failed to start listener", err)
		}
		defer srv.Close()

		logger := log.GetLogger()
		logger.WithFields(map[string]interface{}{
			"endpoint": srv.Endpoint().String(),
		}).Info("listening")

		var handler linklayer.ReceiveHandler
		handler = func(err error, n int) {
			switch {
			case err != nil:
				logger.WithError(err).Error("receive failed")
			case n < linklayer.HeaderLen:
				logger.Debugf("discarding undersized frame of %d bytes", n)
			default:
				hdr, _ := linklayer.ParseFrameHeader(srv.Buffer())
				logger.WithFields(map[string]interface{}{
					"type": hdr.Type,
					"dst":  hdr.Dst.String(),
					"src":  hdr.Src.String(),
					"len":  n,
					"from": srv.Remote().String(),
				}).Info("frame received")
			}
			if ctx.Err() != nil {
				return
			}
			if err := srv.AsyncReceive(handler); err != nil {
				logger.WithError(err).Error("failed to re-arm receive")
			}
		}
		if err := srv.AsyncReceive(handler); err != nil {
			exitWithError("failed to arm receive", err)
		}

		loop.Run(ctx)
		logger.Info("listener stopped")
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
