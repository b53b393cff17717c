package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vistoenmaps/vistoenmaps-api/internal/auth"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
)

// BusinessHandler handles the business listings
type BusinessHandler struct {
	businesses services.BusinessService
}

// NewBusinessHandler creates a new business handler with service injection
func NewBusinessHandler(businesses services.BusinessService) *BusinessHandler {
	return &BusinessHandler{
		businesses: businesses,
	}
}

type businessQuery struct {
	Category string `form:"categoria" binding:"max=80"`
	City     string `form:"ciudad" binding:"max=80"`
	Barrio   string `form:"barrio" binding:"max=120"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

// ListBusinesses returns a page of businesses
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	var q businessQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, "query", err)
		return
	}

	page, err := h.businesses.List(c.Request.Context(), models.BusinessFilters{
		CategorySlug: q.Category,
		CitySlug:     q.City,
		BarrioSlug:   q.Barrio,
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"negocios":  page.Items,
		"total":     page.Total,
		"limit":     page.Limit,
		"offset":    page.Offset,
		"timestamp": time.Now(),
	})
}

// GetBusiness returns a business by slug
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	b, err := h.businesses.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"negocio":   b,
		"timestamp": time.Now(),
	})
}

// GetBusinessRecommendations returns the directories a stored business should register with
func (h *BusinessHandler) GetBusinessRecommendations(c *gin.Context) {
	res, err := h.businesses.Recommendations(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"negocio":         res.Business,
		"recomendaciones": res.Recommendations,
		"resumen":         res.Summary,
		"timestamp":       time.Now(),
	})
}

// ListMyBusinesses returns the caller's businesses
func (h *BusinessHandler) ListMyBusinesses(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	items, err := h.businesses.ListMine(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"negocios":  items,
		"total":     len(items),
		"timestamp": time.Now(),
	})
}

// CreateBusiness registers a business owned by the caller
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.BusinessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, "business", err)
		return
	}

	b, err := h.businesses.Create(c.Request.Context(), user, &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Business created successfully",
		"negocio":   b,
		"timestamp": time.Now(),
	})
}

// UpdateBusiness applies a partial update (owner or admin)
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business ID"})
		return
	}

	var update models.BusinessUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindError(c, "business", err)
		return
	}

	b, err := h.businesses.Update(c.Request.Context(), user, id, &update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Business updated successfully",
		"negocio":   b,
		"timestamp": time.Now(),
	})
}

// DeleteBusiness removes a business (owner or admin)
func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business ID"})
		return
	}

	if err := h.businesses.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Business deleted successfully",
		"timestamp": time.Now(),
	})
}

// GetStats returns the admin overview
func (h *BusinessHandler) GetStats(c *gin.Context) {
	stats, err := h.businesses.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"timestamp": time.Now(),
	})
}

// ImportBusinesses bulk-loads a negocios.json export (admin)
func (h *BusinessHandler) ImportBusinesses(c *gin.Context) {
	var records []models.ImportRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		respondBindError(c, "import", err)
		return
	}

	res, err := h.businesses.Import(c.Request.Context(), records)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Import finished",
		"result":    res,
		"timestamp": time.Now(),
	})
}
