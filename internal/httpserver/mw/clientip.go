package mw

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP resolves the client address of a request.
// With trustProxy, CF-Connecting-IP, the left-most X-Forwarded-For entry
// and X-Real-IP are consulted in that order before RemoteAddr. Only run
// with trustProxy behind a proxy that overwrites those headers.
func ClientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		candidates := []string{
			r.Header.Get("CF-Connecting-IP"),
			firstForwardedFor(r.Header.Get("X-Forwarded-For")),
			r.Header.Get("X-Real-IP"),
		}
		for _, c := range candidates {
			if ip, ok := parseAddr(c); ok {
				return ip
			}
		}
	}
	ip, _ := parseAddr(r.RemoteAddr)
	return ip
}

func firstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return first
}

// parseAddr accepts "ip", "ip:port" and "[v6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// prefixSet matches addresses against exact IPs and CIDRs.
type prefixSet []netip.Prefix

// newPrefixSet parses a list of IPs and CIDRs. Invalid entries are
// returned separately so the caller can report them.
func newPrefixSet(list []string) (prefixSet, []string) {
	var set prefixSet
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			set = append(set, p.Masked())
			continue
		}
		if ip, err := netip.ParseAddr(s); err == nil {
			ip = ip.Unmap()
			set = append(set, netip.PrefixFrom(ip, ip.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return set, invalid
}

func (s prefixSet) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	for _, p := range s {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
