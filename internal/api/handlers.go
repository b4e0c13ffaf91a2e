package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/kb-sitemap/internal/models"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
	"github.com/romangod6/kb-sitemap/internal/storage"
	"github.com/romangod6/kb-sitemap/internal/utils"
)

// Handler serves the sitemap registry. The manager is not safe for
// concurrent use, so every access goes through mu.
type Handler struct {
	mu      sync.RWMutex
	manager *sitemap.Manager
	store   storage.Store
	logger  *utils.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// URLRequest is the body of POST /api/sitemaps/:name/urls. LastMod accepts
// any date format dateparse understands.
type URLRequest struct {
	Loc        string   `json:"loc" binding:"required"`
	LastMod    string   `json:"lastmod"`
	ChangeFreq string   `json:"changefreq"`
	Priority   *float64 `json:"priority"`
}

// NewHandler wires the registry to an optional store; a nil store keeps
// changes in memory only.
func NewHandler(manager *sitemap.Manager, store storage.Store, logger *utils.Logger) *Handler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Handler{
		manager: manager,
		store:   store,
		logger:  logger.WithComponent("api"),
	}
}

// Regenerate writes the index and chunk files to path under the read lock.
func (h *Handler) Regenerate(path string, backup bool) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.manager.Save(path, "", backup)
}

// Reload merges the store's contents into the registry.
func (h *Handler) Reload(ctx context.Context) (int, error) {
	if h.store == nil {
		return 0, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return storage.LoadInto(ctx, h.store, h.manager)
}

func (h *Handler) ServeIndex(c *gin.Context) {
	h.mu.RLock()
	resp, err := h.manager.Respond("", http.StatusOK, nil)
	h.mu.RUnlock()

	h.writeDocument(c, resp, err)
}

// ServeSitemap serves a registered sitemap, or chunk N of sitemap "name"
// when the path is "name.N".
func (h *Handler) ServeSitemap(c *gin.Context) {
	name := c.Param("name")

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.manager.Has(name) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	if _, ok := h.manager.Get(name); ok {
		resp, err := h.manager.Respond(name, http.StatusOK, nil)
		h.writeDocument(c, resp, err)
		return
	}

	dot := strings.LastIndex(name, ".")
	index, _ := strconv.Atoi(name[dot+1:])
	body, err := h.manager.RenderChunk(name[:dot], index)
	h.writeDocument(c, &sitemap.Response{
		Body:   body,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {h.manager.Format().ContentType()}},
	}, err)
}

func (h *Handler) writeDocument(c *gin.Context, resp *sitemap.Response, err error) {
	if err != nil {
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to render sitemap")
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrUnsupportedFormat) {
			status = http.StatusNotImplemented
		}
		c.JSON(status, ErrorResponse{Error: "Failed to render sitemap"})
		return
	}

	if resp.Body == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	for key, values := range resp.Header {
		if key == "Content-Type" {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Data(resp.Status, resp.ContentType(), resp.Body)
}

func (h *Handler) ListSitemaps(c *gin.Context) {
	h.mu.RLock()
	summaries := h.manager.Summaries()
	h.mu.RUnlock()

	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetSitemap(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.manager.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	c.JSON(http.StatusOK, s)
}

func (h *Handler) AddURL(c *gin.Context) {
	name := c.Param("name")

	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid url data"})
		return
	}

	url, err := req.toURL()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store != nil {
		if err := h.store.UpsertURL(c.Request.Context(), models.NewStoredURL(name, url)); err != nil {
			h.logger.Error().Err(err).Str("sitemap", name).Str("loc", url.Loc()).Msg("Failed to store url")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to store url"})
			return
		}
	}

	s, ok := h.manager.Get(name)
	if !ok {
		h.manager.Create(name, nil)
		s, _ = h.manager.Get(name)
	}
	s.Add(url)

	h.logger.Debug().Str("sitemap", name).Str("loc", url.Loc()).Msg("Added url")
	c.JSON(http.StatusCreated, url)
}

func (h *Handler) DeleteURL(c *gin.Context) {
	name := c.Param("name")
	loc := c.Query("loc")
	if loc == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing loc"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.manager.Get(name)
	if !ok || !s.Has(loc) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "URL not found"})
		return
	}

	if h.store != nil {
		if err := h.store.DeleteURL(c.Request.Context(), name, loc); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete url"})
			return
		}
	}
	s.Remove(loc)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) DeleteSitemap(c *gin.Context) {
	name := c.Param("name")

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.manager.Get(name); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Sitemap not found"})
		return
	}

	if h.store != nil {
		if err := h.store.DeleteSitemaps(c.Request.Context(), name); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete sitemap"})
			return
		}
	}
	h.manager.Forget(name)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (r URLRequest) toURL() (*models.URL, error) {
	loc := strings.TrimSpace(r.Loc)
	if loc == "" {
		return nil, errors.New("loc is required")
	}
	url := models.NewURL(loc)

	if r.LastMod != "" {
		t, err := dateparse.ParseIn(r.LastMod, time.UTC)
		if err != nil {
			return nil, errors.New("invalid lastmod")
		}
		url.SetLastMod(t.UTC().Truncate(time.Second))
	}

	if r.ChangeFreq != "" {
		cf, err := models.ParseChangeFreq(r.ChangeFreq)
		if err != nil {
			return nil, err
		}
		url.SetChangeFreq(cf)
	}

	if r.Priority != nil {
		if *r.Priority < 0 || *r.Priority > 1 {
			return nil, errors.New("priority must be between 0.0 and 1.0")
		}
		url.SetPriority(*r.Priority)
	}

	return url, nil
}
