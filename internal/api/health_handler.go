package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
)

// HealthChecker is implemented by the database wrapper
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler reports service health and serves the sitemap
type HealthHandler struct {
	db      HealthChecker
	catalog *catalog.Catalog
	sitemap services.SitemapService
	logger  logger.Logger
}

// NewHealthHandler creates a health handler; db may be nil when the
// service runs without a database
func NewHealthHandler(db HealthChecker, cat *catalog.Catalog, sitemap services.SitemapService, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		catalog: cat,
		sitemap: sitemap,
		logger:  log,
	}
}

// GetHealth returns 200 when every configured dependency responds
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := http.StatusOK
	database := "disabled"

	if h.db != nil {
		database = "ok"
		if err := h.db.HealthCheck(); err != nil {
			h.logger.Warn("Database health check failed", "error", err.Error())
			database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"healthy":     status == http.StatusOK,
		"database":    database,
		"directorios": h.catalog.Len(),
		"timestamp":   time.Now(),
	})
}

// GetSitemap serves sitemap.xml
func (h *HealthHandler) GetSitemap(c *gin.Context) {
	data, err := h.sitemap.Generate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}
