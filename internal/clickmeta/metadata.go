// Package clickmeta derives client metadata for click recording.
// Derivation never fails: every field that cannot be determined degrades
// to its sentinel value instead of returning an error.
package clickmeta

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mileusna/useragent"

	"shortlink/internal/domain"
	"shortlink/internal/geo"
)

// Device classes. Anything that is not clearly mobile, tablet or desktop
// reports as unknown.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Deriver turns raw client details into ClientMetadata. The geo lookup is
// the only part that may touch the network, so Derive takes the already
// extracted user agent and IP rather than the request itself; extraction
// happens on the request goroutine, derivation can happen off it.
type Deriver struct {
	resolver geo.Resolver
}

// NewDeriver creates a Deriver. A nil resolver falls back to the no-op
// resolver, so the zero configuration still produces valid sentinels.
func NewDeriver(resolver geo.Resolver) *Deriver {
	if resolver == nil {
		resolver = geo.NoopResolver{}
	}
	return &Deriver{resolver: resolver}
}

// Derive builds ClientMetadata from a raw user agent and client IP.
func (d *Deriver) Derive(ctx context.Context, userAgent, ip string) domain.ClientMetadata {
	meta := domain.ClientMetadata{
		IP:        ip,
		UserAgent: userAgent,
		Device:    DeviceClass(userAgent),
		Country:   domain.CountryUnknown,
	}

	if geo.IsLocal(ip) {
		meta.Country = domain.CountryLocalhost
		return meta
	}
	if ip == domain.IPUnknown {
		return meta
	}

	country, err := d.resolver.ResolveCountry(ctx, ip)
	if err != nil || country == "" {
		return meta
	}
	meta.Country = country
	return meta
}

// ClientIP returns the best-effort client address: the first entry of the
// X-Forwarded-For chain, then X-Real-IP, then the direct peer address.
// Returns the "unknown" sentinel when nothing usable is present.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		// RemoteAddr without a port, e.g. from a test request
		return r.RemoteAddr
	}
	return domain.IPUnknown
}

// DeviceClass parses the user agent into a coarse device class.
func DeviceClass(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return domain.DeviceUnknown
	}
	parsed := useragent.Parse(ua)
	switch {
	case parsed.Tablet:
		return DeviceTablet
	case parsed.Mobile:
		return DeviceMobile
	case parsed.Desktop:
		return DeviceDesktop
	default:
		return domain.DeviceUnknown
	}
}
