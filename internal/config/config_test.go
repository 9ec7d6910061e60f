package config

import (
	"os"
	"path/filepath"
	"testing"

	"firestige.xyz/rawlink/pkg/linklayer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
interface: "eth0"
protocol: "ip"
send_mode: "bound"
filter: "src 192.168.1.1"
capture:
  backend: "afpacket"
  snap_len: 2048
  buffer_size_mb: 4
log:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Interface != "eth0" {
		t.Errorf("Expected interface eth0, got %s", cfg.Interface)
	}
	if et, _ := cfg.EtherType(); et != linklayer.EtherTypeIPv4 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x", et)
	}
	if cfg.ServerSendMode() != linklayer.SendToBound {
		t.Errorf("Expected bound send mode, got %v", cfg.ServerSendMode())
	}
	if cfg.Capture.Backend != "afpacket" {
		t.Errorf("Expected afpacket backend, got %s", cfg.Capture.Backend)
	}
	if cfg.Capture.SnapLen != 2048 {
		t.Errorf("Expected snap_len 2048, got %d", cfg.Capture.SnapLen)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}

	opts, err := cfg.CaptureOptions()
	if err != nil {
		t.Fatalf("CaptureOptions failed: %v", err)
	}
	if opts.EtherType != linklayer.EtherTypeIPv4 || opts.SnapLen != 2048 {
		t.Errorf("Capture options not derived from config: %+v", opts)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	if cfg.Interface != "" {
		t.Errorf("Expected empty interface, got %s", cfg.Interface)
	}
	if et, _ := cfg.EtherType(); et != linklayer.EtherTypeAll {
		t.Errorf("Expected all-protocols default, got 0x%04x", et)
	}
	if cfg.ServerSendMode() != linklayer.SendToFrameDest {
		t.Errorf("Expected frame-dest default send mode")
	}
	if cfg.Capture.Backend != "socket" {
		t.Errorf("Expected socket default backend, got %s", cfg.Capture.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadInvalidProtocol(t *testing.T) {
	path := writeConfig(t, `
protocol: "bogus"
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid protocol")
	}
}

func TestLoadInvalidSendMode(t *testing.T) {
	path := writeConfig(t, `
send_mode: "broadcast"
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid send_mode")
	}
}

func TestLoadInvalidBackend(t *testing.T) {
	path := writeConfig(t, `
capture:
  backend: "pcap"
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for unsupported capture backend")
	}
}

func TestLoadInvalidFilter(t *testing.T) {
	path := writeConfig(t, `
filter: "tcp port 80"
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for unsupported filter expression")
	}
}
