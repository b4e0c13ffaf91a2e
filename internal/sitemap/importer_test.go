package sitemap

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.com/</loc>
    <lastmod>2024-03-10</lastmod>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
  <url>
    <loc> https://example.com/about </loc>
    <changefreq>sometimes</changefreq>
    <priority>high</priority>
  </url>
  <url>
    <lastmod>2024-03-10</lastmod>
  </url>
  <url>
    <loc>https://example.com/</loc>
    <priority>0.9</priority>
  </url>
</urlset>`

func TestImportXML(t *testing.T) {
	s := models.NewSitemap("imported.xml", nil)

	result, err := ImportXML(strings.NewReader(sampleSitemap), s)
	require.NoError(t, err)

	assert.Equal(t, 3, result.URLs)
	assert.Len(t, result.Skipped, 3)
	assert.Equal(t, 2, s.Count())

	home, ok := s.URL("https://example.com/")
	require.True(t, ok)
	// last entry for the same loc wins
	p, _ := home.Priority()
	assert.Equal(t, 0.9, p)
	assert.False(t, home.Has(models.FieldLastMod))

	about, ok := s.URL("https://example.com/about")
	require.True(t, ok)
	assert.False(t, about.Has(models.FieldChangeFreq))
	assert.False(t, about.Has(models.FieldPriority))
}

func TestImportXML_DateOnlyLastMod(t *testing.T) {
	doc := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>/a</loc><lastmod>2024-03-10</lastmod></url></urlset>`
	s := models.NewSitemap("x", nil)

	_, err := ImportXML(strings.NewReader(doc), s)
	require.NoError(t, err)

	u, _ := s.URL("/a")
	lm, ok := u.LastMod()
	require.True(t, ok)
	assert.Equal(t, 2024, lm.Year())
	assert.Equal(t, time.March, lm.Month())
	assert.Equal(t, 10, lm.Day())
}

func TestImportXML_Invalid(t *testing.T) {
	_, err := ImportXML(strings.NewReader(`<sitemapindex></sitemapindex>`), models.NewSitemap("x", nil))
	assert.Error(t, err)

	_, err = ImportXML(strings.NewReader("plain text, not a sitemap"), models.NewSitemap("x", nil))
	assert.Error(t, err)
}

func TestManager_Import(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in/sitemap.xml", []byte(sampleSitemap), 0644))

	m := NewManager(StaticSettings{MaxURLs: 1}, WithFs(fs))

	result, err := m.Import("pages", "in/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, 3, result.URLs)

	s, ok := m.Get("pages")
	require.True(t, ok)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.IsExceeded())

	// importing again merges into the registered sitemap
	_, err = m.Import("pages", "in/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	_, err = m.Import("pages", "in/missing.xml")
	var ioErr *models.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
}
