package repository

import (
	"context"

	"shortlink/internal/domain"
)

// LinkRepository is the authoritative store of LinkEntry records.
//
// Uniqueness of (short_code, domain) is enforced by Create itself, not by
// a prior Exists call: two concurrent Creates with the same pair must
// yield exactly one success and one domain.ErrDuplicateCode.
type LinkRepository interface {
	// Create inserts a new entry and fills in its assigned ID and
	// CreatedAt. Returns domain.ErrDuplicateCode when the
	// (short_code, domain) pair is already taken.
	Create(ctx context.Context, entry *domain.LinkEntry) error

	// GetByCode resolves an entry by short code alone. The redirect path
	// does not know the domain in advance.
	GetByCode(ctx context.Context, shortCode string) (*domain.LinkEntry, error)

	// GetByID retrieves an entry by its assigned ID.
	GetByID(ctx context.Context, id string) (*domain.LinkEntry, error)

	// List returns up to limit entries, most recently created first.
	List(ctx context.Context, limit int) ([]*domain.LinkEntry, error)

	// Update applies a partial update of the mutable fields, keyed by id.
	// Returns domain.ErrNotFound when no entry matches.
	Update(ctx context.Context, id string, update domain.LinkUpdate) (*domain.LinkEntry, error)

	// Delete removes an entry and every ClickEvent referencing its short
	// code as one unit of work. Returns domain.ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Exists reports whether (short_code, domain) is taken. Advisory
	// only; Create is the authoritative check.
	Exists(ctx context.Context, shortCode, linkDomain string) (bool, error)
}

// ClickRepository is the append-only store of ClickEvents.
type ClickRepository interface {
	// Create appends one immutable event.
	Create(ctx context.Context, click *domain.ClickEvent) error

	// Summarize aggregates all events for a short code. The four numbers
	// are computed from one consistent snapshot.
	Summarize(ctx context.Context, shortCode string) (*domain.Statistics, error)
}
