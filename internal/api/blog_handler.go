package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
)

// BlogHandler serves the generated ranking posts
type BlogHandler struct {
	blog services.BlogService
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blog services.BlogService) *BlogHandler {
	return &BlogHandler{blog: blog}
}

// ListPosts returns every published ranking
func (h *BlogHandler) ListPosts(c *gin.Context) {
	posts, err := h.blog.Generate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":     posts,
		"total":     len(posts),
		"timestamp": time.Now(),
	})
}

// GetPost returns one ranking by slug
func (h *BlogHandler) GetPost(c *gin.Context) {
	post, err := h.blog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":      post,
		"timestamp": time.Now(),
	})
}
