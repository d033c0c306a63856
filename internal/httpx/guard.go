package httpx

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Guard validates outbound URLs before any request is made. It blocks
// requests to internal networks and cloud metadata services (SSRF).
type Guard struct {
	// AllowPrivateHosts disables the private-network checks. Meant for
	// tests and trusted lab setups only.
	AllowPrivateHosts bool
}

// ValidateURL rejects URLs with disallowed schemes, empty hosts, or
// hosts pointing into private address space.
func (g Guard) ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("disallowed scheme %q (only http and https)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("url %q has no host", raw)
	}

	if g.AllowPrivateHosts {
		return nil
	}

	if isBlockedHostname(hostname) {
		return fmt.Errorf("access to internal host %q is not allowed", hostname)
	}
	if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("access to internal address %s is not allowed", ip)
	}
	return nil
}

func isBlockedHostname(hostname string) bool {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	switch hostname {
	case "localhost", "metadata.google.internal", "metadata":
		return true
	}
	for _, suffix := range []string{".localhost", ".local", ".internal"} {
		if strings.HasSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
