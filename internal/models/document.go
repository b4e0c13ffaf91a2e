// internal/models/document.go
package models

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const (
	SitemapNamespace    = "http://www.sitemaps.org/schemas/sitemap/0.9"
	SchemaInstance      = "http://www.w3.org/2001/XMLSchema-instance"
	URLSetSchema        = SitemapNamespace + " " + SitemapNamespace + "/sitemap.xsd"
	SitemapIndexSchema  = SitemapNamespace + " " + SitemapNamespace + "/siteindex.xsd"
	StylesheetProcInstr = "xml-stylesheet"
)

// URLSet represents the structure of an XML sitemap.
type URLSet struct {
	XMLName        xml.Name   `xml:"urlset"`
	Xmlns          string     `xml:"xmlns,attr"`
	XSI            string     `xml:"xmlns:xsi,attr"`
	SchemaLocation string     `xml:"xsi:schemaLocation,attr"`
	URLs           []URLEntry `xml:"url"`
}

// URLEntry represents a single URL entry in the sitemap.
type URLEntry struct {
	Loc        string `xml:"loc,omitempty"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapIndex represents the structure of an XML sitemap index.
type SitemapIndex struct {
	XMLName        xml.Name     `xml:"sitemapindex"`
	Xmlns          string       `xml:"xmlns,attr"`
	XSI            string       `xml:"xmlns:xsi,attr"`
	SchemaLocation string       `xml:"xsi:schemaLocation,attr"`
	Sitemaps       []IndexEntry `xml:"sitemap"`
}

// IndexEntry references one sitemap document from the index.
type IndexEntry struct {
	Loc     string `xml:"loc,omitempty"`
	LastMod string `xml:"lastmod,omitempty"`
}

// NewURLSet builds the document for the sitemap's entries. Absent optional
// fields stay empty and are omitted on encode.
func NewURLSet(s *Sitemap) (*URLSet, error) {
	set := &URLSet{
		Xmlns:          SitemapNamespace,
		XSI:            SchemaInstance,
		SchemaLocation: URLSetSchema,
		URLs:           make([]URLEntry, 0, s.Count()),
	}

	for _, u := range s.URLs() {
		lastMod, err := u.FormatLastMod(FormatXML)
		if err != nil {
			return nil, err
		}
		cf, _ := u.ChangeFreq()
		set.URLs = append(set.URLs, URLEntry{
			Loc:        u.Loc(),
			LastMod:    lastMod,
			ChangeFreq: string(cf),
			Priority:   u.FormatPriority(),
		})
	}

	return set, nil
}

// FormatPriority formats p with at least one decimal place ("1.0", "0.85").
func FormatPriority(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
