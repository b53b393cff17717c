package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vistoenmaps/vistoenmaps-api/internal/auth"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/middleware"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
	"github.com/vistoenmaps/vistoenmaps-api/pkg/config"
)

// SetupRoutes configures all API routes. db may be nil; business routes
// are only mounted when svcs.Businesses is set, and routes that need a
// bearer token only when an auth secret is configured.
func SetupRoutes(r *gin.Engine, svcs *services.Services, cfg *config.Config, db HealthChecker, log logger.Logger) {
	recommendationHandler := NewRecommendationHandler(svcs.Recommendations)
	healthHandler := NewHealthHandler(db, svcs.Recommendations.Catalog(), svcs.Sitemap, log)

	r.GET("/health", healthHandler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/sitemap.xml", healthHandler.GetSitemap)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.GET("/recomendaciones", recommendationHandler.GetRecommendations)
		public.GET("/recomendaciones/resumen", recommendationHandler.GetSummary)
		public.GET("/directorios", recommendationHandler.ListDirectories)
		public.GET("/directorios/:slug", recommendationHandler.GetDirectory)
		public.GET("/categorias", recommendationHandler.ListCategories)
	}

	if svcs.Businesses == nil {
		log.Warn("No database configured, business routes disabled")
		return
	}

	businessHandler := NewBusinessHandler(svcs.Businesses)
	{
		public.GET("/negocios", businessHandler.ListBusinesses)
		public.GET("/negocios/:slug", businessHandler.GetBusiness)
		public.GET("/negocios/:slug/recomendaciones", businessHandler.GetBusinessRecommendations)
	}

	if svcs.Blog != nil {
		blogHandler := NewBlogHandler(svcs.Blog)
		public.GET("/blog", blogHandler.ListPosts)
		public.GET("/blog/:slug", blogHandler.GetPost)
	}

	if !cfg.HasAuth() {
		log.Warn("AUTH_JWT_SECRET not set, authenticated routes disabled")
		return
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.NoStoreMiddleware())
	protected.Use(auth.JWTMiddleware(cfg.AuthJWTSecret))
	{
		protected.GET("/negocios/mine", businessHandler.ListMyBusinesses)
		protected.POST("/negocios", businessHandler.CreateBusiness)
		protected.PUT("/negocios/:id", businessHandler.UpdateBusiness)
		protected.DELETE("/negocios/:id", businessHandler.DeleteBusiness)
	}

	admin := protected.Group("/admin")
	admin.Use(auth.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", businessHandler.GetStats)
		admin.POST("/negocios/import", businessHandler.ImportBusinesses)
	}
}
