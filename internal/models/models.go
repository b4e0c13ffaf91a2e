package models

import (
	"time"

	"github.com/google/uuid"
)

// StoredURL is the persisted form of a sitemap entry.
type StoredURL struct {
	ID          uuid.UUID  `json:"id"`
	SitemapName string     `json:"sitemap"`
	Loc         string     `json:"loc"`
	LastMod     *time.Time `json:"lastmod,omitempty"`
	ChangeFreq  string     `json:"changefreq,omitempty"`
	Priority    *float64   `json:"priority,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewStoredURL creates a record for url in the named sitemap with a
// generated UUID and timestamps
func NewStoredURL(sitemapName string, url *URL) *StoredURL {
	now := time.Now()
	rec := &StoredURL{
		ID:          uuid.New(),
		SitemapName: sitemapName,
		Loc:         url.Loc(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if t, ok := url.LastMod(); ok {
		rec.LastMod = &t
	}
	if cf, ok := url.ChangeFreq(); ok {
		rec.ChangeFreq = string(cf)
	}
	if p, ok := url.Priority(); ok {
		rec.Priority = &p
	}

	return rec
}

// ToURL converts the record back into a sitemap entry.
func (r *StoredURL) ToURL() (*URL, error) {
	url := NewURL(r.Loc)
	if r.LastMod != nil {
		url.SetLastMod(*r.LastMod)
	}
	if r.ChangeFreq != "" {
		cf, err := ParseChangeFreq(r.ChangeFreq)
		if err != nil {
			return nil, err
		}
		url.SetChangeFreq(cf)
	}
	if r.Priority != nil {
		url.SetPriority(*r.Priority)
	}
	return url, nil
}

// SitemapSummary describes a registered sitemap for listings.
type SitemapSummary struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	URLCount int        `json:"url_count"`
	Exceeded bool       `json:"exceeded"`
	Chunks   int        `json:"chunks,omitempty"`
	LastMod  *time.Time `json:"lastmod,omitempty"`
}
