package sitemap

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/araddon/dateparse"
	"github.com/romangod6/kb-sitemap/internal/models"
)

// ImportResult summarizes an import. Skipped lists entries or fields that
// could not be read; the rest of the entry is still imported.
type ImportResult struct {
	URLs    int
	Skipped []string
}

// ImportXML reads a <urlset> document and adds its entries to s. Existing
// entries with the same loc are replaced.
func ImportXML(r io.Reader, s *models.Sitemap) (*ImportResult, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	root := xmlquery.FindOne(doc, "/urlset")
	if root == nil {
		return nil, errors.New("document has no urlset root")
	}

	result := &ImportResult{}
	for i, node := range xmlquery.Find(root, "url") {
		loc := childText(node, "loc")
		if loc == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("url #%d: missing loc", i+1))
			continue
		}

		url := models.NewURL(loc)

		if v := childText(node, "lastmod"); v != "" {
			if t, err := dateparse.ParseIn(v, time.UTC); err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("%s: lastmod %q", loc, v))
			} else {
				url.SetLastMod(t)
			}
		}

		if v := childText(node, "changefreq"); v != "" {
			if cf, err := models.ParseChangeFreq(v); err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("%s: changefreq %q", loc, v))
			} else {
				url.SetChangeFreq(cf)
			}
		}

		if v := childText(node, "priority"); v != "" {
			if p, err := strconv.ParseFloat(v, 64); err != nil {
				result.Skipped = append(result.Skipped, fmt.Sprintf("%s: priority %q", loc, v))
			} else {
				url.SetPriority(p)
			}
		}

		s.Add(url)
		result.URLs++
	}

	return result, nil
}

func childText(n *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(n, name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

// Import reads the sitemap document at path into the sitemap registered as
// name, creating it when missing.
func (m *Manager) Import(name, path string) (*ImportResult, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return nil, models.NewIOError("open", path, err)
	}
	defer f.Close()

	s, found := m.Get(name)
	if !found {
		s = models.NewSitemap(name, m.settings)
	}

	result, err := ImportXML(f, s)
	if err != nil {
		return nil, err
	}

	if !found {
		m.Add(name, s)
	}

	m.logger.Info().
		Str("sitemap", name).
		Str("path", path).
		Int("urls", result.URLs).
		Int("skipped", len(result.Skipped)).
		Msg("Imported sitemap")

	return result, nil
}
