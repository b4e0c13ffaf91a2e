package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/romangod6/kb-sitemap/internal/models"
)

// IndexItem is one registered sitemap as seen by an index renderer.
type IndexItem struct {
	Name    string
	Sitemap *models.Sitemap
}

// Renderer turns the data model into a document body for one format.
type Renderer interface {
	RenderSitemap(s *models.Sitemap) ([]byte, error)
	RenderIndex(items []IndexItem) ([]byte, error)
}

// StylesheetSource supplies the optional XSLT stylesheet URL.
type StylesheetSource interface {
	StylesheetURL() string
}

// XMLRenderer produces sitemaps.org 0.9 urlset and sitemapindex documents.
type XMLRenderer struct {
	stylesheet StylesheetSource
}

// NewXMLRenderer creates an XML renderer. The stylesheet URL is read on
// every render; a nil source never emits the processing instruction.
func NewXMLRenderer(stylesheet StylesheetSource) *XMLRenderer {
	return &XMLRenderer{stylesheet: stylesheet}
}

func (r *XMLRenderer) RenderSitemap(s *models.Sitemap) ([]byte, error) {
	set, err := models.NewURLSet(s)
	if err != nil {
		return nil, err
	}
	return r.encode(set)
}

// RenderIndex lists every item in order. Items with an empty name get no
// <loc>; <lastmod> is the most recent lastmod of the item's URLs.
func (r *XMLRenderer) RenderIndex(items []IndexItem) ([]byte, error) {
	index := &models.SitemapIndex{
		Xmlns:          models.SitemapNamespace,
		XSI:            models.SchemaInstance,
		SchemaLocation: models.SitemapIndexSchema,
		Sitemaps:       make([]models.IndexEntry, 0, len(items)),
	}

	for _, item := range items {
		var entry models.IndexEntry
		if item.Name != "" {
			entry.Loc = item.Sitemap.Path()
		}
		if latest, ok := item.Sitemap.LatestLastMod(); ok {
			entry.LastMod = latest.Format(models.LastModLayout)
		}
		index.Sitemaps = append(index.Sitemaps, entry)
	}

	return r.encode(index)
}

func (r *XMLRenderer) encode(doc interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	if r.stylesheet != nil {
		if href := r.stylesheet.StylesheetURL(); href != "" {
			buf.WriteString("<?" + models.StylesheetProcInstr + ` type="text/xsl" href="`)
			if err := xml.EscapeText(&buf, []byte(href)); err != nil {
				return nil, err
			}
			buf.WriteString("\"?>\n")
		}
	}

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// TextRenderer produces the sitemaps.org plain text format: one URL per
// line. It is not registered by default.
type TextRenderer struct{}

func (TextRenderer) RenderSitemap(s *models.Sitemap) ([]byte, error) {
	var buf bytes.Buffer
	for _, u := range s.URLs() {
		buf.WriteString(u.Loc())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (TextRenderer) RenderIndex(items []IndexItem) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		buf.WriteString(item.Sitemap.Path())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
