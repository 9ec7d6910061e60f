package utils

import (
	"testing"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		hasErr  bool
		empty   bool
		numInst int
	}{
		{name: "empty filter", filter: "", empty: true},
		{name: "whitespace only", filter: "   ", empty: true},
		{name: "ipv4 protocol", filter: "ip", numInst: 4},
		{name: "ipv6 protocol", filter: "ip6", numInst: 4},
		{name: "arp protocol", filter: "arp", numInst: 4},
		{name: "uppercase", filter: "IP", numInst: 4},
		{name: "source address", filter: "src 192.168.1.1", numInst: 6},
		{name: "destination address", filter: "dst 10.0.0.1", numInst: 6},
		{name: "host address", filter: "host 172.16.0.1", numInst: 8},
		{name: "invalid address", filter: "src 999.1.2.3", hasErr: true},
		{name: "unsupported expression", filter: "tcp port 80", hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := CompileFilter(tt.filter)
			if tt.hasErr {
				if err == nil {
					t.Fatalf("expected error for filter %q", tt.filter)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for filter %q: %v", tt.filter, err)
			}
			if tt.empty {
				if prog != nil {
					t.Fatalf("expected nil program for filter %q, got %d instructions", tt.filter, len(prog))
				}
				return
			}
			if len(prog) != tt.numInst {
				t.Errorf("filter %q: expected %d instructions, got %d", tt.filter, tt.numInst, len(prog))
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	if err := ValidateFilter("ip"); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
	if err := ValidateFilter("bogus filter"); err == nil {
		t.Error("invalid filter accepted")
	}
}
