package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

type Store interface {
	Initialize() error
	Close() error

	// URL operations
	UpsertURL(ctx context.Context, url *models.StoredURL) error
	GetURL(ctx context.Context, sitemapName, loc string) (*models.StoredURL, error)
	ListURLs(ctx context.Context, sitemapName string) ([]*models.StoredURL, error)
	DeleteURL(ctx context.Context, sitemapName, loc string) error

	// Sitemap operations
	ListSitemapNames(ctx context.Context) ([]string, error)
	DeleteSitemaps(ctx context.Context, names ...string) error
}

// Open connects to the store for driver ("sqlite" or "postgres").
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "sqlite3", "":
		store, err := NewSQLiteStore(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres", "postgresql":
		store, err := NewPostgresStore(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, &models.ConfigurationError{Key: "database.driver", Value: driver, Err: errors.New("unknown driver")}
	}
}

// LoadInto registers every stored sitemap in m, merging into sitemaps that
// are already registered. It returns the number of URLs loaded.
func LoadInto(ctx context.Context, store Store, m *sitemap.Manager) (int, error) {
	names, err := store.ListSitemapNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sitemaps: %w", err)
	}

	total := 0
	for _, name := range names {
		records, err := store.ListURLs(ctx, name)
		if err != nil {
			return total, fmt.Errorf("failed to list urls for %s: %w", name, err)
		}

		s, ok := m.Get(name)
		if !ok {
			m.Create(name, nil)
			s, _ = m.Get(name)
		}

		for _, rec := range records {
			url, err := rec.ToURL()
			if err != nil {
				return total, fmt.Errorf("invalid stored url %s: %w", rec.Loc, err)
			}
			s.Add(url)
			total++
		}
	}

	return total, nil
}

// SaveSitemap upserts every URL of s under name.
func SaveSitemap(ctx context.Context, store Store, name string, s *models.Sitemap) error {
	for _, url := range s.URLs() {
		if err := store.UpsertURL(ctx, models.NewStoredURL(name, url)); err != nil {
			return fmt.Errorf("failed to save %s: %w", url.Loc(), err)
		}
	}
	return nil
}
