package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"rental-search/models"
	"rental-search/utils"
)

const listingColumns = 13

// PostgresWriter persists listing snapshots to PostgreSQL. Rows are keyed
// by listing id; a later snapshot of the same listing replaces the earlier.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it with the
// given retry policy, runs schema migrations, and returns a ready writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: retry.Logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			listing_id   TEXT          PRIMARY KEY,
			source       VARCHAR(50)   NOT NULL,
			title        TEXT          NOT NULL,
			price        NUMERIC(10,2) NOT NULL DEFAULT 0,
			location     TEXT          NOT NULL DEFAULT '',
			bedrooms     INTEGER       NOT NULL DEFAULT 0,
			bathrooms    INTEGER       NOT NULL DEFAULT 0,
			description  TEXT          NOT NULL DEFAULT '',
			image_url    TEXT          NOT NULL DEFAULT '',
			available    TEXT          NOT NULL DEFAULT 'Now',
			external_url TEXT          NOT NULL DEFAULT '',
			amenities    TEXT[]        NOT NULL DEFAULT '{}',
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);
		CREATE INDEX IF NOT EXISTS idx_listings_source   ON listings(source);
	`)
	return err
}

// Write upserts listings in batches. When ids repeat, the last one wins.
func (pw *PostgresWriter) Write(ctx context.Context, listings []models.Listing) error {
	listings = uniqueByID(listings)
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		query, args := buildUpsert(listings[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch at %d: %w", i, err)
		}
	}
	pw.logger.Info("[postgres] Stored %d listings", len(listings))
	return nil
}

func uniqueByID(listings []models.Listing) []models.Listing {
	pos := make(map[string]int, len(listings))
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if i, ok := pos[l.ID]; ok {
			out[i] = l
			continue
		}
		pos[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

// buildUpsert renders one multi-row upsert. A batch must not repeat an id.
func buildUpsert(batch []models.Listing) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		created := l.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		amenities := l.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		valueArgs = append(valueArgs,
			l.ID, l.Source, l.Title, l.Price, l.Location, l.Bedrooms, l.Bathrooms,
			l.Description, l.ImageURL, l.Available, l.ExternalURL, pq.Array(amenities), created)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (listing_id, source, title, price, location, bedrooms, bathrooms,
			description, image_url, available, external_url, amenities, created_at)
		VALUES %s
		ON CONFLICT (listing_id) DO UPDATE SET
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			location = EXCLUDED.location,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			available = EXCLUDED.available,
			external_url = EXCLUDED.external_url,
			amenities = EXCLUDED.amenities,
			created_at = EXCLUDED.created_at
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings, newest first. Match scores are
// not stored and come back as base.
func (pw *PostgresWriter) FetchAll(ctx context.Context, baseScore int) ([]models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT listing_id, source, title, price, location, bedrooms, bathrooms,
			description, image_url, available, external_url, amenities, created_at
		FROM listings
		ORDER BY created_at DESC, listing_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l := models.Listing{MatchScore: baseScore}
		if err := rows.Scan(
			&l.ID, &l.Source, &l.Title, &l.Price, &l.Location, &l.Bedrooms, &l.Bathrooms,
			&l.Description, &l.ImageURL, &l.Available, &l.ExternalURL, pq.Array(&l.Amenities), &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// PostgresSource serves stored snapshots as a listing source.
type PostgresSource struct {
	Writer    *PostgresWriter
	BaseScore int
}

func (s *PostgresSource) Name() string { return "Snapshots" }

func (s *PostgresSource) Search(ctx context.Context, _ models.SearchCriteria) ([]models.Listing, error) {
	return s.Writer.FetchAll(ctx, s.BaseScore)
}
