package source

import (
	"fmt"
	"net/netip"
)

// AddressClass places an address in the IANA special-purpose taxonomy.
type AddressClass int

const (
	// ClassGlobal is publicly routable space.
	ClassGlobal AddressClass = iota + 1
	// ClassPrivate is non-forwardable or site-local space (RFC1918, ULA, loopback, ...).
	ClassPrivate
	// ClassShared is neither global nor private (100.64.0.0/10 carrier-grade NAT).
	ClassShared
)

func (c AddressClass) String() string {
	switch c {
	case ClassGlobal:
		return "global"
	case ClassPrivate:
		return "private"
	case ClassShared:
		return "shared"
	default:
		return "unknown"
	}
}

var (
	privateBlocks = mustPrefixes(
		"0.0.0.0/8",
		"10.0.0.0/8",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"172.16.0.0/12",
		"192.0.0.0/29",
		"192.0.0.170/31",
		"192.0.2.0/24",
		"192.168.0.0/16",
		"198.18.0.0/15",
		"198.51.100.0/24",
		"203.0.113.0/24",
		"240.0.0.0/4",
		"255.255.255.255/32",
		"::1/128",
		"::/128",
		"::ffff:0:0/96",
		"100::/64",
		"2001::/23",
		"2001:2::/48",
		"2001:db8::/32",
		"2001:10::/28",
		"fc00::/7",
		"fe80::/10",
	)
	sharedBlock = netip.MustParsePrefix("100.64.0.0/10")
)

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

// Classify returns the class of a single address.
func Classify(addr netip.Addr) AddressClass {
	addr = addr.Unmap()
	for _, p := range privateBlocks {
		if p.Contains(addr) {
			return ClassPrivate
		}
	}
	if sharedBlock.Contains(addr) {
		return ClassShared
	}
	return ClassGlobal
}

// ClassifyPrefix returns the class of a network: private or global only when
// both its first and last address agree, shared otherwise.
func ClassifyPrefix(p netip.Prefix) AddressClass {
	p = p.Masked()
	first, last := Classify(p.Addr()), Classify(lastAddr(p))
	if first == last {
		return first
	}
	return ClassShared
}

// IsLoopbackOrLinkLocal reports addresses that never describe a reachable interface.
func IsLoopbackOrLinkLocal(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsLinkLocalUnicast()
}

// HostPrefix returns the single-address prefix for addr (/32 or /128).
func HostPrefix(addr netip.Addr) string {
	return netip.PrefixFrom(addr, addr.BitLen()).String()
}

// WithPrefixLen formats addr with the length of the subnet it lives in.
func WithPrefixLen(addr netip.Addr, subnet netip.Prefix) string {
	return fmt.Sprintf("%s/%d", addr, subnet.Bits())
}

func lastAddr(p netip.Prefix) netip.Addr {
	b := p.Addr().AsSlice()
	bits := p.Bits()
	for i := range b {
		for j := 0; j < 8; j++ {
			if i*8+j >= bits {
				b[i] |= 0x80 >> j
			}
		}
	}
	addr, _ := netip.AddrFromSlice(b)
	return addr
}
