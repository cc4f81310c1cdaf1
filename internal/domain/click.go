package domain

import "time"

// Sentinel values for click metadata that could not be resolved.
// Metadata derivation never fails a request; it degrades to these.
const (
	CountryUnknown   = "unknown"
	CountryLocalhost = "localhost"
	DeviceUnknown    = "unknown"
	IPUnknown        = "unknown"
)

// ClickEvent is an immutable record of one successful redirect.
// Events are append-only and are removed only as a cascade of deleting
// the LinkEntry whose ShortCode they reference.
type ClickEvent struct {
	ID        int64
	ShortCode string // back-reference to the resolved LinkEntry
	Timestamp time.Time
	Country   string // coarse geo class, or "unknown"/"localhost"
	Device    string // desktop, mobile, tablet or "unknown"
	IP        string // best-effort client address, or "unknown"
	UserAgent string // raw client string, unvalidated
}

// ClientMetadata is what the recorder derives from a raw request before
// appending a ClickEvent.
type ClientMetadata struct {
	IP        string
	Country   string
	Device    string
	UserAgent string
}

// NewClickEvent stamps a ClickEvent from derived metadata.
func NewClickEvent(shortCode string, meta ClientMetadata) *ClickEvent {
	return &ClickEvent{
		ShortCode: shortCode,
		Timestamp: time.Now().UTC(),
		Country:   meta.Country,
		Device:    meta.Device,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
}
