package sitemap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/spf13/afero"
)

// Save writes the document for name (the index when name is empty) to path.
// With backup set, an existing file at path is first moved to
// {dir}/{file}_old{.ext}, replacing any earlier backup. Every sitemap over
// the size limit is then split and each chunk written to
// {dir}/{file}-{i}{.ext}. Save does nothing when no sitemap is registered.
// Writes are sequential; a failure part way leaves earlier files in place.
func (m *Manager) Save(path, name string, backup bool) error {
	if m.sitemaps.Empty() {
		return nil
	}

	body, err := m.Render(name)
	if err != nil {
		return err
	}
	if body == nil {
		return fmt.Errorf("sitemap %q: %w", name, models.ErrNotFound)
	}

	log := m.logger.With().Str("path", path).Logger()

	if backup {
		if err := m.backup(path); err != nil {
			return err
		}
	}

	if err := m.write(path, body); err != nil {
		return err
	}
	log.Debug().Int("bytes", len(body)).Msg("Wrote sitemap document")

	for _, item := range m.items() {
		if !item.Sitemap.IsExceeded() {
			continue
		}
		if err := m.saveChunks(path, item.Sitemap); err != nil {
			return err
		}
		log.Debug().Str("sitemap", item.Name).Int("urls", item.Sitemap.Count()).Msg("Wrote sitemap chunks")
	}

	return nil
}

func (m *Manager) saveChunks(path string, s *models.Sitemap) error {
	r, err := m.renderer()
	if err != nil {
		return err
	}

	chunks := s.Chunk()
	for i := 1; i <= len(chunks); i++ {
		body, err := r.RenderSitemap(chunks[i])
		if err != nil {
			return err
		}
		if err := m.write(ChunkFilePath(path, i), body); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) backup(path string) error {
	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return models.NewIOError("stat", path, err)
	}
	if !exists {
		return nil
	}

	target := BackupFilePath(path)
	if old, err := afero.Exists(m.fs, target); err != nil {
		return models.NewIOError("stat", target, err)
	} else if old {
		if err := m.fs.Remove(target); err != nil {
			return models.NewIOError("remove", target, err)
		}
	}

	if err := m.fs.Rename(path, target); err != nil {
		return models.NewIOError("rename", path, err)
	}
	m.logger.Debug().Str("path", path).Str("backup", target).Msg("Backed up existing sitemap")
	return nil
}

func (m *Manager) write(path string, body []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return models.NewIOError("mkdir", dir, err)
		}
	}
	if err := afero.WriteFile(m.fs, path, body, 0644); err != nil {
		return models.NewIOError("write", path, err)
	}
	return nil
}

// PathParts splits path into directory, file name without extension, and
// extension including the dot. A leading dot does not start an extension.
func PathParts(path string) (dir, filename, ext string) {
	dir = filepath.Dir(path)
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	if ext == base {
		ext = ""
	}
	return dir, strings.TrimSuffix(base, ext), ext
}

// ChunkFilePath returns {dir}/{file}-{index}{.ext} for path.
func ChunkFilePath(path string, index int) string {
	dir, filename, ext := PathParts(path)
	return filepath.Join(dir, fmt.Sprintf("%s-%d%s", filename, index, ext))
}

// BackupFilePath returns {dir}/{file}_old{.ext} for path.
func BackupFilePath(path string) string {
	dir, filename, ext := PathParts(path)
	return filepath.Join(dir, filename+"_old"+ext)
}
