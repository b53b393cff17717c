package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
)

// RecommendationHandler serves directory recommendations and the directory catalog
type RecommendationHandler struct {
	recommendations services.RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler with service injection
func NewRecommendationHandler(recommendations services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
	}
}

type recommendationQuery struct {
	Category string `form:"categoria" binding:"required,max=80"`
	City     string `form:"ciudad" binding:"max=80"`
}

type directoryQuery struct {
	Category string `form:"categoria" binding:"omitempty,oneof=general resenas servicios reformas b2b social regional"`
	Tier     string `form:"tipo" binding:"omitempty,oneof=premium estandar basico social"`
}

// GetRecommendations returns the scored directory list for a category and city
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	var q recommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, "query", err)
		return
	}

	recs := h.recommendations.Recommend(q.Category, q.City)

	c.JSON(http.StatusOK, gin.H{
		"categoria":       q.Category,
		"ciudad":          q.City,
		"recomendaciones": recs,
		"total":           len(recs),
		"timestamp":       time.Now(),
	})
}

// GetSummary returns the recommendations partitioned by priority
func (h *RecommendationHandler) GetSummary(c *gin.Context) {
	var q recommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, "query", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categoria": q.Category,
		"ciudad":    q.City,
		"resumen":   h.recommendations.Summarize(q.Category, q.City),
		"timestamp": time.Now(),
	})
}

// ListDirectories returns the catalog, optionally filtered by category and tier
func (h *RecommendationHandler) ListDirectories(c *gin.Context) {
	var q directoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, "query", err)
		return
	}

	dirs := h.recommendations.ListDirectories(q.Category, q.Tier)

	c.JSON(http.StatusOK, gin.H{
		"directorios": dirs,
		"total":       len(dirs),
		"timestamp":   time.Now(),
	})
}

// GetDirectory returns a single directory
func (h *RecommendationHandler) GetDirectory(c *gin.Context) {
	dir, err := h.recommendations.GetDirectory(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"directorio": dir,
		"timestamp":  time.Now(),
	})
}

// ListCategories returns the business categories and cities the scorer knows
func (h *RecommendationHandler) ListCategories(c *gin.Context) {
	cat := h.recommendations.Catalog()

	c.JSON(http.StatusOK, gin.H{
		"categorias": cat.Categories(),
		"ciudades":   cat.Cities(),
		"timestamp":  time.Now(),
	})
}
