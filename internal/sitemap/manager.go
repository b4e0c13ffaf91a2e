package sitemap

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/utils"
	"github.com/spf13/afero"
)

// Settings is the configuration the manager reads at call time.
type Settings interface {
	models.SizeLimit
	StylesheetSource
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	MaxURLs    int
	Stylesheet string
}

func (s StaticSettings) MaxSize() int {
	if s.MaxURLs <= 0 {
		return models.DefaultMaxSize
	}
	return s.MaxURLs
}

func (s StaticSettings) StylesheetURL() string {
	return s.Stylesheet
}

// Manager is a registry of named sitemaps that renders them, persists them
// with chunking, and builds HTTP response payloads. It is not safe for
// concurrent mutation; callers serialize access.
type Manager struct {
	sitemaps  *linkedhashmap.Map
	format    models.Format
	settings  Settings
	fs        afero.Fs
	renderers map[models.Format]Renderer
	logger    *utils.Logger
}

type Option func(*Manager)

// WithFs sets the filesystem used by Save and Import. Defaults to the OS.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

func WithLogger(logger *utils.Logger) Option {
	return func(m *Manager) {
		m.logger = logger.WithComponent("sitemap")
	}
}

func WithFormat(f models.Format) Option {
	return func(m *Manager) {
		m.format = f
	}
}

// WithRenderer registers r for format f.
func WithRenderer(f models.Format, r Renderer) Option {
	return func(m *Manager) {
		m.renderers[f] = r
	}
}

// NewManager creates an empty registry using XML output. A nil settings
// value means StaticSettings{}.
func NewManager(settings Settings, opts ...Option) *Manager {
	if settings == nil {
		settings = StaticSettings{}
	}

	m := &Manager{
		sitemaps: linkedhashmap.New(),
		format:   models.FormatXML,
		settings: settings,
		fs:       afero.NewOsFs(),
		logger:   utils.NewNopLogger(),
	}
	m.renderers = map[models.Format]Renderer{
		models.FormatXML: NewXMLRenderer(settings),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SetFormat selects the format for subsequent Render, Save and Respond calls.
func (m *Manager) SetFormat(f models.Format) *Manager {
	m.format = f
	return m
}

func (m *Manager) Format() models.Format {
	return m.format
}

// RegisterRenderer installs a document generator for a format.
func (m *Manager) RegisterRenderer(f models.Format, r Renderer) *Manager {
	m.renderers[f] = r
	return m
}

// Create builds a sitemap whose path is name, lets configure populate it,
// and registers it under name.
func (m *Manager) Create(name string, configure func(*models.Sitemap)) *Manager {
	s := models.NewSitemap(name, m.settings)
	if configure != nil {
		configure(s)
	}
	return m.Add(name, s)
}

// Add registers s under name, replacing any sitemap already registered
// there. A sitemap without a size limit inherits the manager's settings.
func (m *Manager) Add(name string, s *models.Sitemap) *Manager {
	if s.Limit() == nil {
		s.SetLimit(m.settings)
	}
	m.sitemaps.Put(name, s)
	return m
}

// Get returns the sitemap registered under name.
func (m *Manager) Get(name string) (*models.Sitemap, bool) {
	v, found := m.sitemaps.Get(name)
	if !found {
		return nil, false
	}
	return v.(*models.Sitemap), true
}

// Has reports whether name is registered. A name of the form "name.N" that
// is not itself registered checks whether chunk N exists in sitemap "name";
// only sitemaps currently over the size limit have chunks.
func (m *Manager) Has(name string) bool {
	if _, found := m.sitemaps.Get(name); found {
		return true
	}

	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return false
	}

	s, found := m.Get(name[:dot])
	if !found || !s.IsExceeded() {
		return false
	}

	index, err := strconv.Atoi(name[dot+1:])
	if err != nil {
		return false
	}

	_, ok := s.Chunk()[index]
	return ok
}

// Forget unregisters the given names. Unknown names are ignored.
func (m *Manager) Forget(names ...string) *Manager {
	for _, name := range names {
		m.sitemaps.Remove(name)
	}
	return m
}

// Names returns the registered names in registration order.
func (m *Manager) Names() []string {
	names := make([]string, 0, m.sitemaps.Size())
	it := m.sitemaps.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

func (m *Manager) Count() int {
	return m.sitemaps.Size()
}

// Summaries describes every registered sitemap in registration order.
func (m *Manager) Summaries() []models.SitemapSummary {
	items := m.items()
	out := make([]models.SitemapSummary, 0, len(items))
	for _, item := range items {
		summary := models.SitemapSummary{
			Name:     item.Name,
			Path:     item.Sitemap.Path(),
			URLCount: item.Sitemap.Count(),
			Exceeded: item.Sitemap.IsExceeded(),
		}
		if summary.Exceeded {
			summary.Chunks = len(item.Sitemap.Chunk())
		}
		if t, ok := item.Sitemap.LatestLastMod(); ok {
			summary.LastMod = &t
		}
		out = append(out, summary)
	}
	return out
}

func (m *Manager) items() []IndexItem {
	items := make([]IndexItem, 0, m.sitemaps.Size())
	it := m.sitemaps.Iterator()
	for it.Next() {
		items = append(items, IndexItem{
			Name:    it.Key().(string),
			Sitemap: it.Value().(*models.Sitemap),
		})
	}
	return items
}

func (m *Manager) renderer() (Renderer, error) {
	r, ok := m.renderers[m.format]
	if !ok {
		return nil, &models.UnsupportedFormatError{Format: m.format}
	}
	return r, nil
}

// Render returns the document for the sitemap registered as name in the
// active format. An empty name renders the index. A nil body with a nil
// error means there was nothing to render.
func (m *Manager) Render(name string) ([]byte, error) {
	if name == "" {
		return m.RenderIndex()
	}

	r, err := m.renderer()
	if err != nil {
		return nil, err
	}

	s, found := m.Get(name)
	if !found {
		return nil, nil
	}

	return r.RenderSitemap(s)
}

// RenderChunk returns chunk index (1-based) of the sitemap registered as
// name. A nil body means the sitemap is missing, within its limit, or has no
// such chunk.
func (m *Manager) RenderChunk(name string, index int) ([]byte, error) {
	r, err := m.renderer()
	if err != nil {
		return nil, err
	}

	s, found := m.Get(name)
	if !found || !s.IsExceeded() {
		return nil, nil
	}

	chunk, ok := s.Chunk()[index]
	if !ok {
		return nil, nil
	}
	return r.RenderSitemap(chunk)
}

// RenderIndex returns the sitemap index for every registered sitemap, or
// nil when the registry is empty.
func (m *Manager) RenderIndex() ([]byte, error) {
	r, err := m.renderer()
	if err != nil {
		return nil, err
	}

	if m.sitemaps.Empty() {
		return nil, nil
	}

	return r.RenderIndex(m.items())
}

// MarshalJSON encodes the registry as an object of name to URL array, in
// registration order.
func (m *Manager) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range m.items() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Sitemap)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
