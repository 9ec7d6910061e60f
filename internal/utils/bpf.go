// Package utils holds small helpers shared by the capture backends,
// currently the in-kernel filter compiler.
package utils

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/bpf"

	"firestige.xyz/rawlink/pkg/linklayer"
)

// acceptAll is the return length for matching frames; 65535 keeps the
// whole frame.
const acceptAll = 65535

// Ethernet header offsets used by the generated programs.
const (
	offEtherType = 12
	offIPv4Src   = linklayer.HeaderLen + 12
	offIPv4Dst   = linklayer.HeaderLen + 16
)

var (
	srcRegex  = regexp.MustCompile(`\bsrc\s+([0-9.]+)`)
	dstRegex  = regexp.MustCompile(`\bdst\s+([0-9.]+)`)
	hostRegex = regexp.MustCompile(`\bhost\s+([0-9.]+)`)
)

// CompileFilter turns a tcpdump-like expression into a classic BPF
// program for a raw Ethernet socket. Supported forms: "ip", "ip6",
// "arp", "src A.B.C.D", "dst A.B.C.D", "host A.B.C.D". Address forms
// imply IPv4. An empty expression compiles to nil, meaning no filter.
func CompileFilter(filter string) ([]bpf.RawInstruction, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return nil, nil
	}

	if m := srcRegex.FindStringSubmatch(filter); len(m) > 1 {
		return compileIPv4AddrFilter(m[1], offIPv4Src, 0)
	}
	if m := dstRegex.FindStringSubmatch(filter); len(m) > 1 {
		return compileIPv4AddrFilter(m[1], offIPv4Dst, 0)
	}
	if m := hostRegex.FindStringSubmatch(filter); len(m) > 1 {
		return compileIPv4AddrFilter(m[1], offIPv4Src, offIPv4Dst)
	}

	switch filter {
	case "ip", "ip4", "ipv4":
		return compileEtherTypeFilter(linklayer.EtherTypeIPv4)
	case "ip6", "ipv6":
		return compileEtherTypeFilter(linklayer.EtherTypeIPv6)
	case "arp":
		return compileEtherTypeFilter(linklayer.EtherTypeARP)
	}

	return nil, fmt.Errorf("unsupported filter expression %q", filter)
}

// ValidateFilter reports whether the expression compiles.
func ValidateFilter(filter string) error {
	_, err := CompileFilter(filter)
	return err
}

func compileEtherTypeFilter(etherType uint16) ([]bpf.RawInstruction, error) {
	return bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: offEtherType, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(etherType), SkipFalse: 1},
		bpf.RetConstant{Val: acceptAll},
		bpf.RetConstant{Val: 0},
	})
}

// compileIPv4AddrFilter accepts IPv4 frames whose address at off1 (or,
// when off2 is non-zero, at either offset) equals addr.
func compileIPv4AddrFilter(addr string, off1, off2 uint32) ([]bpf.RawInstruction, error) {
	ip := net.ParseIP(addr).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", addr)
	}
	val := uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])

	if off2 == 0 {
		return bpf.Assemble([]bpf.Instruction{
			bpf.LoadAbsolute{Off: offEtherType, Size: 2},
			bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(linklayer.EtherTypeIPv4), SkipTrue: 3},
			bpf.LoadAbsolute{Off: off1, Size: 4},
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: val, SkipFalse: 1},
			bpf.RetConstant{Val: acceptAll},
			bpf.RetConstant{Val: 0},
		})
	}

	return bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: offEtherType, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: uint32(linklayer.EtherTypeIPv4), SkipTrue: 5},
		bpf.LoadAbsolute{Off: off1, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: val, SkipTrue: 2},
		bpf.LoadAbsolute{Off: off2, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: val, SkipTrue: 1},
		bpf.RetConstant{Val: acceptAll},
		bpf.RetConstant{Val: 0},
	})
}
