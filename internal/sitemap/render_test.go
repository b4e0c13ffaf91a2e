package sitemap

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseXML(t *testing.T, body []byte) *xmlquery.Node {
	t.Helper()
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	require.NoError(t, err)
	return doc
}

func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func TestRender_SitemapScenario(t *testing.T) {
	m := NewManager(nil)
	m.Create("pages", func(s *models.Sitemap) {
		s.Create("/a", func(u *models.URL) {
			u.SetLastMod(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		})
		s.Create("/b", nil)
	})

	body, err := m.Render("pages")
	require.NoError(t, err)
	require.NotNil(t, body)

	assert.True(t, strings.HasPrefix(string(body), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.NotContains(t, string(body), "xml-stylesheet")

	doc := parseXML(t, body)
	require.NotNil(t, xmlquery.FindOne(doc, "/urlset"))
	assert.Contains(t, string(body), `xmlns="`+models.SitemapNamespace+`"`)
	assert.Contains(t, string(body), "sitemap.xsd")

	urls := xmlquery.Find(doc, "/urlset/url")
	require.Len(t, urls, 2)

	assert.Equal(t, "/a", xmlquery.FindOne(urls[0], "loc").InnerText())
	lastmod := xmlquery.FindOne(urls[0], "lastmod")
	require.NotNil(t, lastmod)
	assert.Equal(t, "2024-01-01T00:00:00Z", lastmod.InnerText())

	assert.Equal(t, "/b", xmlquery.FindOne(urls[1], "loc").InnerText())
	assert.Nil(t, xmlquery.FindOne(urls[1], "lastmod"))
}

func TestRender_RoundTripAllFields(t *testing.T) {
	ts := time.Date(2024, 7, 15, 8, 30, 45, 0, time.UTC)
	m := NewManager(nil)
	m.Create("full", func(s *models.Sitemap) {
		s.Create("https://example.com/?a=1&b=2", func(u *models.URL) {
			u.SetLastMod(ts).SetChangeFreq(models.ChangeWeekly).SetPriority(0.8)
		})
	})

	body, err := m.Render("full")
	require.NoError(t, err)

	s := models.NewSitemap("parsed", nil)
	result, err := ImportXML(bytes.NewReader(body), s)
	require.NoError(t, err)
	assert.Equal(t, 1, result.URLs)
	assert.Empty(t, result.Skipped)

	u, ok := s.URL("https://example.com/?a=1&b=2")
	require.True(t, ok)

	lm, ok := u.LastMod()
	require.True(t, ok)
	assert.True(t, ts.Equal(lm), "got %s", lm)

	cf, ok := u.ChangeFreq()
	require.True(t, ok)
	assert.Equal(t, models.ChangeWeekly, cf)

	p, ok := u.Priority()
	require.True(t, ok)
	assert.Equal(t, 0.8, p)
}

func TestRender_OmitsAbsentFields(t *testing.T) {
	m := NewManager(nil)
	m.Create("bare", func(s *models.Sitemap) { s.Create("/only", nil) })

	body, err := m.Render("bare")
	require.NoError(t, err)

	url := xmlquery.FindOne(parseXML(t, body), "/urlset/url")
	require.NotNil(t, url)

	children := elementChildren(url)
	require.Len(t, children, 1)
	assert.Equal(t, "loc", children[0].Data)
}

func TestRender_DoesNotMutate(t *testing.T) {
	m := NewManager(nil)
	m.Create("pages", func(s *models.Sitemap) { s.Create("/a", nil) })

	_, err := m.Render("pages")
	require.NoError(t, err)

	s, _ := m.Get("pages")
	u, _ := s.URL("/a")
	assert.False(t, u.Has(models.FieldLastMod))
	assert.False(t, u.Has(models.FieldPriority))
}

func TestRender_Stylesheet(t *testing.T) {
	settings := &liveSettings{max: 10, stylesheet: "https://example.com/sitemap.xsl?v=1&x=2"}
	m := NewManager(settings)
	m.Create("pages", func(s *models.Sitemap) { s.Create("/a", nil) })

	body, err := m.Render("pages")
	require.NoError(t, err)
	assert.Contains(t, string(body), `<?xml-stylesheet type="text/xsl" href="https://example.com/sitemap.xsl?v=1&amp;x=2"?>`)

	index, err := m.RenderIndex()
	require.NoError(t, err)
	assert.Contains(t, string(index), `<?xml-stylesheet type="text/xsl"`)

	// read at render time
	settings.stylesheet = ""
	body, err = m.Render("pages")
	require.NoError(t, err)
	assert.NotContains(t, string(body), "xml-stylesheet")
}

func TestRender_IndexScenario(t *testing.T) {
	older := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	m := NewManager(nil)
	m.Create("posts.xml", func(s *models.Sitemap) {
		s.Create("/p1", func(u *models.URL) { u.SetLastMod(newer) })
		s.Create("/p2", func(u *models.URL) { u.SetLastMod(older) })
	})
	m.Create("pages.xml", func(s *models.Sitemap) { s.Create("/a", nil) })

	viaRender, err := m.Render("")
	require.NoError(t, err)
	body, err := m.RenderIndex()
	require.NoError(t, err)
	assert.Equal(t, viaRender, body)
	assert.Contains(t, string(body), "siteindex.xsd")

	doc := parseXML(t, body)
	require.NotNil(t, xmlquery.FindOne(doc, "/sitemapindex"))

	entries := xmlquery.Find(doc, "/sitemapindex/sitemap")
	require.Len(t, entries, 2)

	assert.Equal(t, "posts.xml", xmlquery.FindOne(entries[0], "loc").InnerText())
	assert.Equal(t, "2024-06-01T12:00:00Z", xmlquery.FindOne(entries[0], "lastmod").InnerText())

	assert.Equal(t, "pages.xml", xmlquery.FindOne(entries[1], "loc").InnerText())
	assert.Nil(t, xmlquery.FindOne(entries[1], "lastmod"))
}

func TestRender_IndexEmptyName(t *testing.T) {
	m := NewManager(nil)
	m.Add("", models.NewSitemap("ignored.xml", nil))

	body, err := m.RenderIndex()
	require.NoError(t, err)

	entry := xmlquery.FindOne(parseXML(t, body), "/sitemapindex/sitemap")
	require.NotNil(t, entry)
	assert.Empty(t, elementChildren(entry))
}

func TestRender_NothingToRender(t *testing.T) {
	m := NewManager(nil)

	body, err := m.RenderIndex()
	require.NoError(t, err)
	assert.Nil(t, body)

	m.Create("pages", nil)
	body, err = m.Render("missing")
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestRender_UnsupportedFormat(t *testing.T) {
	m := NewManager(nil)
	m.Create("pages", func(s *models.Sitemap) { s.Create("/a", nil) })
	m.SetFormat(models.FormatRSS)

	_, err := m.Render("pages")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))

	_, err = m.RenderIndex()
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
}

func TestTextRenderer(t *testing.T) {
	m := NewManager(nil, WithRenderer(models.FormatTXT, TextRenderer{}))
	m.SetFormat(models.FormatTXT)
	m.Create("https://example.com/pages.txt", func(s *models.Sitemap) {
		s.Create("https://example.com/a", nil).Create("https://example.com/b", nil)
	})
	m.Add("", models.NewSitemap("hidden.txt", nil))

	body, err := m.Render("https://example.com/pages.txt")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a\nhttps://example.com/b\n", string(body))

	index, err := m.RenderIndex()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pages.txt\n", string(index))
}
