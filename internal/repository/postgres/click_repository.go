package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
)

type clickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates the Postgres-backed ClickRepository.
func NewClickRepository(db *pgxpool.Pool) repository.ClickRepository {
	return &clickRepository{db: db}
}

// Create appends one click event. Events are never updated afterwards.
func (r *clickRepository) Create(ctx context.Context, click *domain.ClickEvent) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("create_click").Observe(time.Since(start).Seconds())
	}()

	query := `
		INSERT INTO click_events (short_code, ts, country, device, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx,
		query,
		click.ShortCode,
		click.Timestamp,
		click.Country,
		click.Device,
		click.IP,
		click.UserAgent,
	).Scan(&click.ID)

	if err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("create_click").Inc()
		return domain.NewStorageError("create click event", err)
	}

	return nil
}

// Summarize computes the aggregate view for one short code. All four
// queries run inside a single repeatable-read read-only transaction, so
// the totals and both breakdowns come from the same snapshot and stay
// mutually consistent even while events keep arriving.
func (r *clickRepository) Summarize(ctx context.Context, shortCode string) (*domain.Statistics, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseQueryDuration.WithLabelValues("summarize_clicks").Observe(time.Since(start).Seconds())
	}()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, domain.NewStorageError("begin summarize", err)
	}
	defer tx.Rollback(ctx)

	stats := domain.EmptyStatistics()

	err = tx.QueryRow(
		ctx,
		`SELECT COUNT(*), COUNT(DISTINCT ip) FROM click_events WHERE short_code = $1`,
		shortCode,
	).Scan(&stats.TotalClicks, &stats.UniqueClicks)
	if err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("summarize_clicks").Inc()
		return nil, domain.NewStorageError("count clicks", err)
	}

	stats.ClicksByCountry, err = r.groupBy(ctx, tx, shortCode, "country")
	if err != nil {
		return nil, err
	}

	stats.ClicksByDevice, err = r.groupBy(ctx, tx, shortCode, "device")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.NewStorageError("commit summarize", err)
	}

	return stats, nil
}

// groupBy counts events per distinct value of dim. dim is one of the
// fixed column names passed by Summarize, never caller input.
func (r *clickRepository) groupBy(ctx context.Context, tx pgx.Tx, shortCode, dim string) (map[string]int64, error) {
	query := `SELECT ` + dim + `, COUNT(*) FROM click_events WHERE short_code = $1 GROUP BY ` + dim

	rows, err := tx.Query(ctx, query, shortCode)
	if err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues("summarize_clicks").Inc()
		return nil, domain.NewStorageError("group clicks by "+dim, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, domain.NewStorageError("scan click group", err)
		}
		counts[value] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate click groups", err)
	}

	return counts, nil
}
