package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// HostNoPort strips the port from "ip:port" or "[v6]:port"; other inputs are
// returned unchanged.
func HostNoPort(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// ClientIP resolves the caller address of r.
// With trustProxy, X-Forwarded-For (left-most) then X-Real-IP win over RemoteAddr.
// Only enable it when portal is reachable exclusively through a trusted proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xff := r.Header.Get("X-Forwarded-For")
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return HostNoPort(strings.TrimSpace(first))
		}
		if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
			return HostNoPort(v)
		}
	}
	return HostNoPort(r.RemoteAddr)
}

// PrefixMatcher matches addresses against exact IPs and CIDR prefixes.
type PrefixMatcher struct {
	prefixes []netip.Prefix
}

// NewPrefixMatcher parses list, silently skipping unparsable entries.
// A bare IP becomes a single-address prefix.
func NewPrefixMatcher(list []string) *PrefixMatcher {
	m := &PrefixMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

func (m *PrefixMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

func (m *PrefixMatcher) Allow(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
