package common

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateEndpoint checks that a configured market data endpoint is safe to
// dial. Only http/https URLs with a plain host are accepted, and hosts that
// resolve into loopback, private or link-local ranges are rejected so a bad
// config cannot point the fetcher at internal infrastructure. When
// requireHTTPS is set (production), plain http is also rejected.
func ValidateEndpoint(raw string, requireHTTPS bool) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL %q: %w", raw, err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if requireHTTPS {
			return fmt.Errorf("endpoint %q must use https in production", raw)
		}
	default:
		return fmt.Errorf("endpoint %q has unsupported scheme %q", raw, parsed.Scheme)
	}

	if parsed.User != nil {
		return fmt.Errorf("endpoint %q must not embed credentials", raw)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("endpoint %q has no host", raw)
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("endpoint host %q is not allowed", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isRestrictedIP(ip) {
			return fmt.Errorf("endpoint host %q is in a restricted address range", host)
		}
	}

	return nil
}

func isRestrictedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
