// Package config handles configuration loading using viper.
package config

import (
	"fmt"

	"firestige.xyz/rawlink/internal/capture"
	"firestige.xyz/rawlink/internal/log"
	"firestige.xyz/rawlink/internal/utils"
	"firestige.xyz/rawlink/pkg/linklayer"
)

// Send modes accepted by the `send_mode` key.
const (
	SendModeFrameDest = "frame-dest"
	SendModeBound     = "bound"
)

// Config is the top-level configuration.
type Config struct {
	// Interface to bind, empty meaning all interfaces.
	Interface string `mapstructure:"interface" yaml:"interface"`

	// Protocol is the EtherType filter: all | ip | arp | ipv6 | 0xNNNN.
	Protocol string `mapstructure:"protocol" yaml:"protocol"`

	// SendMode selects the destination policy for injected frames:
	// frame-dest (default) addresses the MAC embedded in the frame
	// header, bound sends to the bound endpoint.
	SendMode string `mapstructure:"send_mode" yaml:"send_mode"`

	// Filter is an optional in-kernel filter expression.
	Filter string `mapstructure:"filter" yaml:"filter"`

	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Log     log.Config    `mapstructure:"log" yaml:"log"`
}

// CaptureConfig configures the synchronous capture backend.
type CaptureConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"` // socket | afpacket
	SnapLen      int    `mapstructure:"snap_len" yaml:"snap_len"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb" yaml:"buffer_size_mb"`
	TimeoutMs    int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Protocol: "all",
		SendMode: SendModeFrameDest,
		Capture: CaptureConfig{
			Backend:      string(capture.TypeSocket),
			SnapLen:      65536,
			BufferSizeMB: 1,
			TimeoutMs:    1000,
		},
		Log: log.DefaultConfig(),
	}
}

// Validate fails fast on values that would only blow up at socket
// construction time.
func (c *Config) Validate() error {
	if _, err := linklayer.ParseEtherType(c.Protocol); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	switch c.SendMode {
	case SendModeFrameDest, SendModeBound:
	default:
		return fmt.Errorf("send_mode must be %q or %q, got %q", SendModeFrameDest, SendModeBound, c.SendMode)
	}
	if !capture.IsSupported(capture.Type(c.Capture.Backend)) {
		return fmt.Errorf("capture backend %q is not supported", c.Capture.Backend)
	}
	if err := utils.ValidateFilter(c.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

// EtherType returns the protocol key as a host-order EtherType.
func (c *Config) EtherType() (uint16, error) {
	return linklayer.ParseEtherType(c.Protocol)
}

// ServerSendMode maps the send_mode key onto the server option.
func (c *Config) ServerSendMode() linklayer.SendMode {
	if c.SendMode == SendModeBound {
		return linklayer.SendToBound
	}
	return linklayer.SendToFrameDest
}

// CaptureOptions builds the capture handle options.
func (c *Config) CaptureOptions() (*capture.Options, error) {
	etherType, err := c.EtherType()
	if err != nil {
		return nil, err
	}
	return &capture.Options{
		Interface:    c.Interface,
		EtherType:    etherType,
		Filter:       c.Filter,
		SnapLen:      c.Capture.SnapLen,
		BufferSizeMB: c.Capture.BufferSizeMB,
		TimeoutMs:    c.Capture.TimeoutMs,
	}, nil
}
