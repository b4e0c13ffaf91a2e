package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/romangod6/kb-sitemap/internal/models"
)

// timestamps are stored as text so both SQLite drivers read them back the same way
const sqliteTimeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sitemap_urls (
            id TEXT PRIMARY KEY,
            sitemap_name TEXT NOT NULL,
            loc TEXT NOT NULL,
            lastmod TEXT,
            changefreq TEXT,
            priority REAL,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
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

func (s *SQLiteStore) UpsertURL(ctx context.Context, url *models.StoredURL) error {
	query := `
        INSERT INTO sitemap_urls (id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(sitemap_name, loc) DO UPDATE SET
            lastmod = excluded.lastmod,
            changefreq = excluded.changefreq,
            priority = excluded.priority,
            updated_at = excluded.updated_at
    `

	var lastMod sql.NullString
	if url.LastMod != nil {
		lastMod = sql.NullString{String: url.LastMod.UTC().Format(sqliteTimeLayout), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		url.ID.String(),
		url.SitemapName,
		url.Loc,
		lastMod,
		nilIfEmpty(url.ChangeFreq),
		nullFloat(url.Priority),
		url.CreatedAt.UTC().Format(sqliteTimeLayout),
		url.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)

	return err
}

func (s *SQLiteStore) GetURL(ctx context.Context, sitemapName, loc string) (*models.StoredURL, error) {
	query := `
        SELECT id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at
        FROM sitemap_urls
        WHERE sitemap_name = ? AND loc = ?
    `

	url, err := scanSQLiteURL(s.db.QueryRowContext(ctx, query, sitemapName, loc))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return url, err
}

func (s *SQLiteStore) ListURLs(ctx context.Context, sitemapName string) ([]*models.StoredURL, error) {
	query := `
        SELECT id, sitemap_name, loc, lastmod, changefreq, priority, created_at, updated_at
        FROM sitemap_urls
        WHERE sitemap_name = ?
        ORDER BY rowid
    `

	rows, err := s.db.QueryContext(ctx, query, sitemapName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []*models.StoredURL
	for rows.Next() {
		url, err := scanSQLiteURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

func (s *SQLiteStore) DeleteURL(ctx context.Context, sitemapName, loc string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_urls WHERE sitemap_name = ? AND loc = ?`, sitemapName, loc)
	return err
}

func (s *SQLiteStore) ListSitemapNames(ctx context.Context) ([]string, error) {
	query := `
        SELECT sitemap_name
        FROM sitemap_urls
        GROUP BY sitemap_name
        ORDER BY MIN(rowid)
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

func (s *SQLiteStore) DeleteSitemaps(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]interface{}, len(names))
	for i, name := range names {
		args[i] = name
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemap_urls WHERE sitemap_name IN (`+placeholders+`)`, args...)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteURL(row rowScanner) (*models.StoredURL, error) {
	url := &models.StoredURL{}
	var (
		idStr      string
		lastMod    sql.NullString
		changeFreq sql.NullString
		priority   sql.NullFloat64
		createdAt  string
		updatedAt  string
	)

	if err := row.Scan(&idStr, &url.SitemapName, &url.Loc, &lastMod, &changeFreq, &priority, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	url.ID, _ = uuid.Parse(idStr)
	url.ChangeFreq = changeFreq.String
	if priority.Valid {
		p := priority.Float64
		url.Priority = &p
	}
	if lastMod.Valid {
		t, err := time.Parse(sqliteTimeLayout, lastMod.String)
		if err != nil {
			return nil, fmt.Errorf("invalid lastmod %q: %w", lastMod.String, err)
		}
		url.LastMod = &t
	}
	url.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	url.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)

	return url, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
