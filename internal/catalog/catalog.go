package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnconfigured means no store connection is configured for this
	// deployment. Callers surface it as "feature unavailable", not as a
	// server fault.
	ErrUnconfigured = errors.New("catalog store not configured")

	// ErrQueryFailed wraps store-level failures (connectivity, bad query).
	ErrQueryFailed = errors.New("catalog query failed")
)

// Artwork is one row of the artworks table. The table is owned and seeded by
// the offline pipeline (cmd/seed); the service only reads it.
type Artwork struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Style    string `json:"style"`
	ImageURL string `json:"image_url"`
}

// Store reads the artworks catalog from Postgres. A nil *Store is valid and
// reports ErrUnconfigured from every query, which is how deployments without
// a DATABASE_URL run.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a catalog store. The pool creates connections lazily, so an
// unreachable database at startup only logs a warning; queries fail until it
// recovers and heal on their own afterwards.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("Catalog store unreachable at startup; gallery queries will fail until it recovers")
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

const findByStyleSQL = `
SELECT id, COALESCE(title, ''), COALESCE(artist, ''), style, image_url
FROM artworks
WHERE style = $1 AND ($3::text = '' OR id <> $3::text)
ORDER BY random()
LIMIT $2`

// FindByStyle returns up to limit artworks whose style equals style exactly
// (matching is case-sensitive; the catalog is seeded with the canonical
// label spelling). Rows come back in random order. A non-empty excludeID
// removes that row from consideration. Read-only.
func (s *Store) FindByStyle(ctx context.Context, style string, limit int, excludeID string) ([]Artwork, error) {
	if s == nil || s.pool == nil {
		return nil, ErrUnconfigured
	}

	rows, err := s.pool.Query(ctx, findByStyleSQL, style, limit, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	out := make([]Artwork, 0, limit)
	for rows.Next() {
		var a Artwork
		if err := rows.Scan(&a.ID, &a.Title, &a.Artist, &a.Style, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return out, nil
}

// EnsureSchema creates the artworks table and its style index when missing.
// Used by cmd/seed, never by the serving path.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrUnconfigured
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS artworks (
			id TEXT PRIMARY KEY,
			title TEXT,
			artist TEXT,
			style TEXT NOT NULL,
			image_url TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artworks_style ON artworks(style)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure artworks schema: %w", err)
		}
	}
	return nil
}

const insertArtworkSQL = `
INSERT INTO artworks (id, title, artist, style, image_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

// InsertArtworks bulk-inserts rows, skipping ids that already exist, and
// returns how many rows were actually written. Empty titles and artists are
// stored as NULL, matching what the seeding pipeline has always produced.
func (s *Store) InsertArtworks(ctx context.Context, artworks []Artwork) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrUnconfigured
	}
	if len(artworks) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, a := range artworks {
		batch.Queue(insertArtworkSQL, a.ID, textOrNil(a.Title), textOrNil(a.Artist), a.Style, a.ImageURL)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var inserted int64
	for range artworks {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert artwork: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
