package redirect

import (
	"net"
	"net/netip"
	"strings"
)

// Classifier decides whether an address sits on a private, non-routable
// network segment.
type Classifier interface {
	IsPrivate(addr netip.Addr) bool
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(addr netip.Addr) bool

// IsPrivate calls f(addr).
func (f ClassifierFunc) IsPrivate(addr netip.Addr) bool {
	return f(addr)
}

// privatePrefixes lists the ranges treated as private:
//   - RFC 1918: 10/8, 172.16/12, 192.168/16
//   - link-local: 169.254/16, fe80::/10
//   - loopback: 127/8, ::1
//   - IPv6 unique local: fc00::/7
var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("::1/128"),
}

// PrivateClassifier is the default Classifier. IPv4-mapped IPv6 addresses
// are classified by their IPv4 form and the zero Addr is never private.
var PrivateClassifier Classifier = ClassifierFunc(isPrivate)

func isPrivate(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap().WithZone("")
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseHostAddr extracts the IP address from "host:port", "[v6]:port" or a
// bare IP literal. The port is ignored. Host names are not resolved and
// yield ok == false.
func ParseHostAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if addr, err := netip.ParseAddr(strings.Trim(s, "[]")); err == nil {
		return addr, true
	}
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
