package netutil

import (
	"net"
	"net/netip"
	"strings"
)

// TrustedProxies decides whether proxy-supplied forwarding headers may be
// believed for a given peer.
type TrustedProxies struct {
	networks []netip.Prefix
}

func NewTrustedProxies(cidrs []string) (*TrustedProxies, error) {
	networks := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, err
		}
		networks = append(networks, prefix)
	}
	return &TrustedProxies{networks: networks}, nil
}

func (t *TrustedProxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, network := range t.networks {
		if network.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP derives the apparent client address. The X-Forwarded-For chain is
// consulted only when the direct peer is a trusted proxy; its leftmost entry
// is the original client. Headers from untrusted peers are never believed.
func ClientIP(remoteAddr, forwardedFor, realIP string, trusted *TrustedProxies) string {
	directIP := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		directIP = host
	}

	if trusted == nil || !trusted.Contains(directIP) {
		return directIP
	}

	if forwardedFor != "" {
		leftmost := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if _, err := netip.ParseAddr(leftmost); err == nil {
			return leftmost
		}
	}

	if realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}

	return directIP
}
