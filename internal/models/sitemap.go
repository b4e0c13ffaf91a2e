package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// DefaultMaxSize is the sitemaps.org limit of URLs per sitemap file.
const DefaultMaxSize = 50000

// SizeLimit supplies the maximum number of URLs per sitemap. It is consulted
// on every check so configuration changes apply without rebuilding sitemaps.
type SizeLimit interface {
	MaxSize() int
}

// StaticLimit is a fixed SizeLimit.
type StaticLimit int

func (l StaticLimit) MaxSize() int {
	return int(l)
}

// Sitemap is an insertion-ordered set of URL entries keyed by loc and bound
// to an output path.
type Sitemap struct {
	path  string
	urls  *linkedhashmap.Map
	limit SizeLimit
}

// NewSitemap creates an empty sitemap. A nil limit means DefaultMaxSize.
func NewSitemap(path string, limit SizeLimit) *Sitemap {
	return &Sitemap{
		path:  path,
		urls:  linkedhashmap.New(),
		limit: limit,
	}
}

func (s *Sitemap) Path() string {
	return s.path
}

func (s *Sitemap) SetPath(path string) *Sitemap {
	s.path = path
	return s
}

func (s *Sitemap) Limit() SizeLimit {
	return s.limit
}

// SetLimit replaces the size limit collaborator.
func (s *Sitemap) SetLimit(limit SizeLimit) *Sitemap {
	s.limit = limit
	return s
}

// Add inserts url, replacing any entry with the same loc. A replaced entry
// keeps its first position.
func (s *Sitemap) Add(url *URL) *Sitemap {
	s.urls.Put(url.Loc(), url)
	return s
}

// AddMany adds each url in order.
func (s *Sitemap) AddMany(urls ...*URL) *Sitemap {
	for _, url := range urls {
		s.Add(url)
	}
	return s
}

// Create builds a URL for loc, lets configure populate it, then adds it.
func (s *Sitemap) Create(loc string, configure func(*URL)) *Sitemap {
	url := NewURL(loc)
	if configure != nil {
		configure(url)
	}
	return s.Add(url)
}

// URL looks up an entry by loc.
func (s *Sitemap) URL(loc string) (*URL, bool) {
	v, found := s.urls.Get(loc)
	if !found {
		return nil, false
	}
	return v.(*URL), true
}

func (s *Sitemap) Has(loc string) bool {
	_, found := s.urls.Get(loc)
	return found
}

// Remove deletes the entry for loc if present.
func (s *Sitemap) Remove(loc string) *Sitemap {
	s.urls.Remove(loc)
	return s
}

func (s *Sitemap) Count() int {
	return s.urls.Size()
}

// URLs returns the entries in insertion order.
func (s *Sitemap) URLs() []*URL {
	urls := make([]*URL, 0, s.urls.Size())
	it := s.urls.Iterator()
	for it.Next() {
		urls = append(urls, it.Value().(*URL))
	}
	return urls
}

// MaxSize is read from the limit collaborator on every call.
func (s *Sitemap) MaxSize() int {
	if s.limit == nil {
		return DefaultMaxSize
	}
	if n := s.limit.MaxSize(); n > 0 {
		return n
	}
	return DefaultMaxSize
}

// IsExceeded reports whether the sitemap holds more URLs than MaxSize.
func (s *Sitemap) IsExceeded() bool {
	return s.Count() > s.MaxSize()
}

// Chunk splits the entries into groups of at most MaxSize, keyed from 1.
// Chunk i gets the parent path with "-i" inserted before the extension.
// The parent is left untouched.
func (s *Sitemap) Chunk() map[int]*Sitemap {
	size := s.MaxSize()
	chunks := make(map[int]*Sitemap)

	var current *Sitemap
	index := 0
	it := s.urls.Iterator()
	for it.Next() {
		if current == nil || current.Count() == size {
			index++
			current = NewSitemap(ChunkPath(s.path, index), s.limit)
			chunks[index] = current
		}
		current.Add(it.Value().(*URL))
	}

	return chunks
}

// LatestLastMod returns the most recent lastmod among the entries.
func (s *Sitemap) LatestLastMod() (time.Time, bool) {
	var latest time.Time
	found := false
	it := s.urls.Iterator()
	for it.Next() {
		if t, ok := it.Value().(*URL).LastMod(); ok && (!found || t.After(latest)) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// MarshalJSON encodes the entries, in order, as an array.
func (s *Sitemap) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.URLs())
}

// ChunkPath inserts "-index" before the extension of the last path segment.
// Works for both filesystem paths and URLs.
func ChunkPath(path string, index int) string {
	dir, file := "", path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		dir, file = path[:i+1], path[i+1:]
	}

	ext := ""
	if dot := strings.LastIndex(file, "."); dot > 0 {
		file, ext = file[:dot], file[dot:]
	}

	return fmt.Sprintf("%s%s-%d%s", dir, file, index, ext)
}
