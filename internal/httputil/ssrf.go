package httputil

import (
	"fmt"
	"net"
)

// ValidateIP checks if an IP address may be the target of an API redirect.
// Private (RFC 1918), loopback, link-local, multicast and unspecified
// addresses are refused. The host is included in error messages.
func ValidateIP(ip net.IP, host string) error {
	switch {
	case ip.IsPrivate():
		return fmt.Errorf("refusing redirect to private IP: %s (%s)", host, ip)
	case ip.IsLoopback():
		return fmt.Errorf("refusing redirect to loopback IP: %s (%s)", host, ip)
	case ip.IsLinkLocalUnicast():
		return fmt.Errorf("refusing redirect to link-local IP: %s (%s)", host, ip)
	case ip.IsLinkLocalMulticast():
		return fmt.Errorf("refusing redirect to link-local multicast: %s (%s)", host, ip)
	case ip.IsMulticast():
		return fmt.Errorf("refusing redirect to multicast IP: %s (%s)", host, ip)
	case ip.IsUnspecified():
		return fmt.Errorf("refusing redirect to unspecified IP: %s (%s)", host, ip)
	}
	return nil
}

// checkHost validates a redirect host. Literal IPs are checked directly;
// names are resolved and every address must pass, so a name that resolves
// to one public and one private address is still refused.
func checkHost(host string, lookup func(string) ([]net.IP, error)) error {
	if ip := net.ParseIP(host); ip != nil {
		return ValidateIP(ip, host)
	}

	ips, err := lookup(host)
	if err != nil {
		return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
	}
	for _, ip := range ips {
		if err := ValidateIP(ip, host); err != nil {
			return fmt.Errorf("refusing redirect: %s resolves to blocked IP %s", host, ip)
		}
	}
	return nil
}
