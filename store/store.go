// Package store is the persistence collaborator: it appends extracted
// leads with their scrape provenance and serves them back. The core
// depends only on this append/list contract, not on the schema.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/models"
)

// SourceMapSearch identifies leads produced by the map-search scraper.
const SourceMapSearch = "google_maps"

// Store persists and retrieves leads.
type Store interface {
	Append(ctx context.Context, leads []models.Lead, source, query string) (int, error)
	List(ctx context.Context, highPriorityOnly bool) ([]models.StoredLead, error)
	Close()
}

// DB is the pgx surface PGStore depends on. Satisfied by *pgxpool.Pool and
// by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	db DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT,
	address     TEXT,
	phone       TEXT,
	website     TEXT,
	has_website BOOLEAN NOT NULL DEFAULT FALSE,
	rating      TEXT,
	review_count TEXT,
	source      TEXT NOT NULL,
	query       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS leads_has_website_idx ON leads (has_website);
`

// Connect opens a pgx pool against the configured database and bootstraps
// the schema.
func Connect(ctx context.Context, cfg config.StoreConfig) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeStorageFailed, "failed to open database pool", err)
	}
	s := NewPGStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPGStore wraps an existing pgx connection surface.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the leads table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return models.NewScrapeError(
			models.ErrCodeStorageFailed, "failed to create schema", err)
	}
	return nil
}

// Append inserts the leads in one transaction with the given provenance and
// returns the number of rows written. All-or-nothing: a failed insert rolls
// the batch back.
func (s *PGStore) Append(ctx context.Context, leads []models.Lead, source, query string) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, models.NewScrapeError(
			models.ErrCodeStorageFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, lead := range leads {
		_, err := tx.Exec(ctx,
			`INSERT INTO leads
				(name, category, address, phone, website, has_website,
				 rating, review_count, source, query, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			lead.Name, lead.Category, lead.Address, lead.Phone, lead.Website,
			lead.HasWebsite, lead.Rating, lead.ReviewCount, source, query, now,
		)
		if err != nil {
			return 0, models.NewScrapeError(
				models.ErrCodeStorageFailed, "failed to insert lead", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, models.NewScrapeError(
			models.ErrCodeStorageFailed, "failed to commit leads", err)
	}
	return len(leads), nil
}

// List returns stored leads, newest first. With highPriorityOnly set, only
// leads without a website are returned.
func (s *PGStore) List(ctx context.Context, highPriorityOnly bool) ([]models.StoredLead, error) {
	q := `SELECT id, name, COALESCE(category,''), COALESCE(address,''),
			COALESCE(phone,''), COALESCE(website,''), has_website,
			COALESCE(rating,''), COALESCE(review_count,''),
			source, query, created_at
		  FROM leads`
	if highPriorityOnly {
		q += ` WHERE has_website = FALSE`
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeStorageFailed, "failed to query leads", err)
	}
	defer rows.Close()

	var out []models.StoredLead
	for rows.Next() {
		var l models.StoredLead
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Category, &l.Address, &l.Phone, &l.Website,
			&l.HasWebsite, &l.Rating, &l.ReviewCount,
			&l.Source, &l.Query, &l.CreatedAt,
		); err != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeStorageFailed, "failed to scan lead row", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeStorageFailed, "lead row iteration failed", err)
	}
	return out, nil
}

// Close releases the underlying pool.
func (s *PGStore) Close() {
	s.db.Close()
}
