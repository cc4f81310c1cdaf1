// Package geo abstracts best-effort country resolution for client IPs.
package geo

import (
	"context"
	"net"

	"shortlink/internal/domain"
)

// Resolver maps a client IP to a coarse country classification. Results
// are best-effort; implementations should return domain.CountryUnknown
// rather than an error whenever resolution is unavailable.
type Resolver interface {
	ResolveCountry(ctx context.Context, ip string) (string, error)
}

// NoopResolver is the default Resolver. It classifies loopback addresses
// as "localhost" and everything else as "unknown", which keeps the core
// fully functional without network access or a geo database.
type NoopResolver struct{}

func (NoopResolver) ResolveCountry(_ context.Context, ip string) (string, error) {
	if IsLocal(ip) {
		return domain.CountryLocalhost, nil
	}
	return domain.CountryUnknown, nil
}

// IsLocal reports whether ip is a loopback or otherwise non-routable
// client address for which a geo lookup is meaningless.
func IsLocal(ip string) bool {
	if ip == "" || ip == domain.IPUnknown {
		return false
	}
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}
