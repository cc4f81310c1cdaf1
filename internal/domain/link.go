package domain

import "time"

// LinkEntry is a short-code mapping. The (ShortCode, Domain) pair is the
// uniqueness key and is immutable once created; edits that would change the
// key are modeled as delete + recreate.
type LinkEntry struct {
	ID             string    // UUID assigned by the store at creation
	ShortCode      string    // short identifier, unique per domain
	Domain         string    // host the code resolves under, from the allow-list
	DestinationURL string    // absolute URL to redirect to
	Title          string    // optional, mutable
	Note           string    // optional, mutable
	CreatedAt      time.Time // set once at creation
}

// ShortenedURL returns the full short URL for this entry.
func (l *LinkEntry) ShortenedURL() string {
	return "https://" + l.Domain + "/" + l.ShortCode
}

// LinkUpdate carries a partial update of the mutable LinkEntry fields.
// Nil means "leave unchanged". ShortCode and Domain are deliberately
// not representable here.
type LinkUpdate struct {
	DestinationURL *string
	Title          *string
	Note           *string
}

// Empty reports whether the update would change nothing.
func (u LinkUpdate) Empty() bool {
	return u.DestinationURL == nil && u.Title == nil && u.Note == nil
}
