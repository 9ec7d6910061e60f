// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/rawlink/internal/config"
	"firestige.xyz/rawlink/internal/log"
)

var (
	// Global flags
	configFile string
	ifaceFlag  string
	protoFlag  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rawlink",
	Short: "rawlink - raw link-layer frame capture and injection",
	Long: `rawlink captures and injects raw Ethernet frames on a network interface
through AF_PACKET sockets.

Commands:
  listen    asynchronous listener printing frame headers
  dump      synchronous listener through a capture backend
  send      inject a frame on an interface
  validate  check a configuration file

Capturing and injecting frames requires CAP_NET_RAW.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")
	rootCmd.PersistentFlags().StringVarP(&ifaceFlag, "interface", "i", "",
		"network interface, empty for all interfaces")
	rootCmd.PersistentFlags().StringVarP(&protoFlag, "protocol", "p", "",
		"EtherType filter: all|ip|arp|ipv6|0xNNNN")
}

// loadConfig loads the config file and applies flag overrides, then
// initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if ifaceFlag != "" {
		cfg.Interface = ifaceFlag
	}
	if protoFlag != "" {
		cfg.Protocol = protoFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
