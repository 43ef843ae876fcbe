// Package ipaddr canonicalizes IP literals received from clients and decides
// which of them may be sent to an external geolocation provider.
package ipaddr

import (
	"net/http"
	"net/netip"
	"strings"
)

// Class is the routing class of an address.
type Class int

const (
	Public Class = iota
	Private
)

func (c Class) String() string {
	if c == Private {
		return "private"
	}
	return "public"
}

// Version is the IP family of a literal.
type Version int

const (
	Invalid Version = iota
	V4
	V6
)

func (v Version) String() string {
	switch v {
	case V4:
		return "v4"
	case V6:
		return "v6"
	default:
		return "invalid"
	}
}

// privateRanges are never geolocated: loopback, RFC 1918, link-local and
// IPv6 unique-local.
var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// Normalize returns the canonical form of raw, or false when raw is empty or
// not an IP literal. It accepts "[v6]", "[v6]:port", "ipv4:port",
// zone-suffixed addresses and IPv4-mapped IPv6 ("::ffff:1.2.3.4" -> "1.2.3.4").
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", false
		}
		s = s[1:end]
	}

	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}

	// "1.2.3.4:8080" has a single colon; "::ffff:1.2.3.4" has several.
	if strings.Contains(s, ".") && strings.Count(s, ":") == 1 {
		s = s[:strings.IndexByte(s, ':')]
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}

	return addr.Unmap().String(), true
}

// Classify reports whether ip lies in a private or reserved range.
// Anything that does not parse is treated as Private so it is never sent out.
func Classify(ip string) Class {
	norm, ok := Normalize(ip)
	if !ok {
		return Private
	}
	addr := netip.MustParseAddr(norm)
	for _, p := range privateRanges {
		if p.Contains(addr) {
			return Private
		}
	}
	return Public
}

// IsPrivate is shorthand for Classify(ip) == Private.
func IsPrivate(ip string) bool {
	return Classify(ip) == Private
}

// ValidateVersion reports the family of ip using the standard library parser.
func ValidateVersion(ip string) Version {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Invalid
	}
	if addr.Is4() {
		return V4
	}
	return V6
}

// ClientIP extracts the caller's address. Candidates, in order: first entry of
// X-Forwarded-For, X-Real-IP, then the transport peer address.
func ClientIP(r *http.Request) (string, bool) {
	var candidates []string

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		candidates = append(candidates, xr)
	}
	candidates = append(candidates, r.RemoteAddr)

	for _, c := range candidates {
		if ip, ok := Normalize(c); ok {
			return ip, true
		}
	}
	return "", false
}
