package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. The unique index on (short_code, domain)
// is what makes Create's duplicate detection authoritative under
// concurrent inserts; the click_events index serves both the aggregation
// queries and the cascade delete.
const schema = `
CREATE TABLE IF NOT EXISTS links (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	short_code      TEXT NOT NULL,
	domain          TEXT NOT NULL,
	destination_url TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	note            TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS links_short_code_domain_idx
	ON links (short_code, domain);

CREATE INDEX IF NOT EXISTS links_created_at_idx
	ON links (created_at DESC);

CREATE TABLE IF NOT EXISTS click_events (
	id         BIGSERIAL PRIMARY KEY,
	short_code TEXT NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	country    TEXT NOT NULL,
	device     TEXT NOT NULL,
	ip         TEXT NOT NULL,
	user_agent TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS click_events_short_code_idx
	ON click_events (short_code);
`

// EnsureSchema creates the tables and indexes when they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
