package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
)

// uniqueViolation is the Postgres error code raised when an insert hits
// the (short_code, domain) unique index.
const uniqueViolation = "23505"

type linkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates the Postgres-backed LinkRepository.
func NewLinkRepository(db *pgxpool.Pool) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Create inserts a new entry. Uniqueness of (short_code, domain) is
// enforced here, at insert time, by the unique index: a losing concurrent
// insert surfaces as domain.ErrDuplicateCode, never as a second success.
func (r *linkRepository) Create(ctx context.Context, entry *domain.LinkEntry) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("create_link").Observe(time.Since(start).Seconds())
	}()

	query := `
		INSERT INTO links (short_code, domain, destination_url, title, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRow(
		ctx,
		query,
		entry.ShortCode,
		entry.Domain,
		entry.DestinationURL,
		entry.Title,
		entry.Note,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateCode
		}
		metrics.DatabaseErrorsTotal.WithLabelValues("create_link").Inc()
		return domain.NewStorageError("create link", err)
	}

	return nil
}

const linkColumns = `id, short_code, domain, destination_url, title, note, created_at`

func scanLink(row pgx.Row) (*domain.LinkEntry, error) {
	entry := &domain.LinkEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.ShortCode,
		&entry.Domain,
		&entry.DestinationURL,
		&entry.Title,
		&entry.Note,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByCode resolves an entry by short code alone.
func (r *linkRepository) GetByCode(ctx context.Context, shortCode string) (*domain.LinkEntry, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("get_link").Observe(time.Since(start).Seconds())
	}()

	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	entry, err := scanLink(r.db.QueryRow(ctx, query, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.DatabaseErrorsTotal.WithLabelValues("get_link").Inc()
		return nil, domain.NewStorageError("get link by code", err)
	}

	return entry, nil
}

// GetByID retrieves an entry by its UUID.
func (r *linkRepository) GetByID(ctx context.Context, id string) (*domain.LinkEntry, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	entry, err := scanLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.DatabaseErrorsTotal.WithLabelValues("get_link").Inc()
		return nil, domain.NewStorageError("get link by id", err)
	}

	return entry, nil
}

// List returns the most recently created entries, newest first.
func (r *linkRepository) List(ctx context.Context, limit int) ([]*domain.LinkEntry, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("list_links").Observe(time.Since(start).Seconds())
	}()

	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("list_links").Inc()
		return nil, domain.NewStorageError("list links", err)
	}
	defer rows.Close()

	var entries []*domain.LinkEntry
	for rows.Next() {
		entry, err := scanLink(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan link", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate links", err)
	}

	return entries, nil
}

// Update applies a partial update keyed by id. COALESCE keeps untouched
// fields as they are, so there is no read-modify-write window; short_code
// and domain are not in the SET list at all.
func (r *linkRepository) Update(ctx context.Context, id string, update domain.LinkUpdate) (*domain.LinkEntry, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("update_link").Observe(time.Since(start).Seconds())
	}()

	query := `
		UPDATE links
		SET destination_url = COALESCE($2, destination_url),
		    title = COALESCE($3, title),
		    note = COALESCE($4, note)
		WHERE id = $1
		RETURNING ` + linkColumns

	entry, err := scanLink(r.db.QueryRow(ctx, query, id, update.DestinationURL, update.Title, update.Note))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.DatabaseErrorsTotal.WithLabelValues("update_link").Inc()
		return nil, domain.NewStorageError("update link", err)
	}

	return entry, nil
}

// Delete removes the entry and cascades to its click events inside one
// transaction, so a failed cascade rolls the entry delete back too.
func (r *linkRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("delete_link").Observe(time.Since(start).Seconds())
	}()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.NewStorageError("begin delete", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row so the short code cannot be resolved into new events
	// between the cascade and the entry delete.
	var shortCode string
	err = tx.QueryRow(ctx, `SELECT short_code FROM links WHERE id = $1 FOR UPDATE`, id).Scan(&shortCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.NewStorageError("lock link for delete", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM click_events WHERE short_code = $1`, shortCode); err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("delete_link").Inc()
		return domain.NewStorageError("cascade delete click events", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM links WHERE id = $1`, id); err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("delete_link").Inc()
		return domain.NewStorageError("delete link", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit delete", err)
	}

	return nil
}

// Exists reports whether a (short_code, domain) pair is taken. Advisory:
// the caller must still be prepared for Create to return ErrDuplicateCode.
func (r *linkRepository) Exists(ctx context.Context, shortCode, linkDomain string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1 AND domain = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, shortCode, linkDomain).Scan(&exists); err != nil {
		return false, domain.NewStorageError("check code existence", err)
	}

	return exists, nil
}

// InitDB creates the connection pool and verifies connectivity. Called
// once at startup.
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
