package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/romangod6/kb-sitemap/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sitemap_urls (
            seq BIGSERIAL,
            id UUID PRIMARY KEY,
            sitemap_name VARCHAR(255) NOT NULL,
            loc VARCHAR(2048) NOT NULL,
            lastmod TIMESTAMPTZ,
            changefreq VARCHAR(16),
            priority DOUBLE PRECISION,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(sitemap_name, loc)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_sitemap_urls_name ON sitemap_urls(sitemap_name)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) UpsertURL(ctx context.Context, url *models.StoredURL) error {
	query := `
        INSERT INTO sitemap_urls (id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (sitemap_name, loc) DO UPDATE SET
            lastmod = EXCLUDED.lastmod,
            changefreq = EXCLUDED.changefreq,
            priority = EXCLUDED.priority,
            updated_at = CURRENT_TIMESTAMP
    `

	var lastMod sql.NullTime
	if url.LastMod != nil {
		lastMod = sql.NullTime{Time: *url.LastMod, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		url.ID,
		url.SitemapName,
		url.Loc,
		lastMod,
		nilIfEmpty(url.ChangeFreq),
		nullFloat(url.Priority),
		url.CreatedAt,
		url.UpdatedAt,
	)

	return err
}

func (s *PostgresStore) GetURL(ctx context.Context, sitemapName, loc string) (*models.StoredURL, error) {
	query := `
        SELECT id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at
        FROM sitemap_urls
        WHERE sitemap_name = $1 AND loc = $2
    `

	url, err := scanPostgresURL(s.db.QueryRowContext(ctx, query, sitemapName, loc))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return url, err
}

func (s *PostgresStore) ListURLs(ctx context.Context, sitemapName string) ([]*models.StoredURL, error) {
	query := `
        SELECT id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at
        FROM sitemap_urls
        WHERE sitemap_name = $1
        ORDER BY seq
    `

	rows, err := s.db.QueryContext(ctx, query, sitemapName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []*models.StoredURL
	for rows.Next() {
		url, err := scanPostgresURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

func (s *PostgresStore) DeleteURL(ctx context.Context, sitemapName, loc string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_urls WHERE sitemap_name = $1 AND loc = $2`, sitemapName, loc)
	return err
}

func (s *PostgresStore) ListSitemapNames(ctx context.Context) ([]string, error) {
	query := `
        SELECT sitemap_name
        FROM sitemap_urls
        GROUP BY sitemap_name
        ORDER BY MIN(seq)
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (s *PostgresStore) DeleteSitemaps(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_urls WHERE sitemap_name = ANY($1)`, pq.Array(names))
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanPostgresURL(row rowScanner) (*models.StoredURL, error) {
	url := &models.StoredURL{}
	var (
		lastMod    sql.NullTime
		changeFreq sql.NullString
		priority   sql.NullFloat64
	)

	if err := row.Scan(&url.ID, &url.SitemapName, &url.Loc, &lastMod, &changeFreq, &priority, &url.CreatedAt, &url.UpdatedAt); err != nil {
		return nil, err
	}

	url.ChangeFreq = changeFreq.String
	if priority.Valid {
		p := priority.Float64
		url.Priority = &p
	}
	if lastMod.Valid {
		t := lastMod.Time
		url.LastMod = &t
	}

	return url, nil
}
