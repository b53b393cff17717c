package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/vistoenmaps/vistoenmaps-api/internal/blog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scoring"
	"github.com/vistoenmaps/vistoenmaps-api/pkg/config"
)

// Services contains all application services
type Services struct {
	Recommendations RecommendationService
	Businesses      BusinessService
	Sitemap         SitemapService
	Blog            BlogService
}

// RecommendationService defines the interface for directory recommendations
type RecommendationService interface {
	Recommend(category, city string) []scoring.Recommendation
	Summarize(category, city string) scoring.Summary
	ListDirectories(category, tier string) []catalog.Directory
	GetDirectory(slug string) (*catalog.Directory, error)
	Catalog() *catalog.Catalog
}

// BusinessService defines the interface for business listing logic
type BusinessService interface {
	List(ctx context.Context, filters models.BusinessFilters) (*BusinessPage, error)
	GetBySlug(ctx context.Context, slug string) (*models.Business, error)
	ListMine(ctx context.Context, user *models.User) ([]models.Business, error)
	Create(ctx context.Context, user *models.User, input *models.BusinessInput) (*models.Business, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, update *models.BusinessUpdate) (*models.Business, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	Recommendations(ctx context.Context, slug string) (*BusinessRecommendations, error)
	Stats(ctx context.Context) (*Stats, error)
	Import(ctx context.Context, records []models.ImportRecord) (*ImportResult, error)
}

// BlogService defines the interface for the generated ranking posts
type BlogService interface {
	Generate(ctx context.Context) ([]blog.Post, error)
	GetBySlug(ctx context.Context, slug string) (*blog.Post, error)
}

// SitemapService defines the interface for sitemap generation
type SitemapService interface {
	Generate(ctx context.Context) ([]byte, error)
}

// BusinessPage is one page of a business listing
type BusinessPage struct {
	Items  []models.Business `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// BusinessRecommendations scores the directories for a stored business
type BusinessRecommendations struct {
	Business        *models.Business         `json:"negocio"`
	Recommendations []scoring.Recommendation `json:"recomendaciones"`
	Summary         scoring.Summary          `json:"resumen"`
}

// Stats is the admin dashboard overview
type Stats struct {
	Businesses  int                    `json:"negocios"`
	ByCategory  []models.CategoryCount `json:"por_categoria"`
	ByCity      []models.CategoryCount `json:"por_ciudad"`
	Directories int                    `json:"directorios"`
	Critical    []string               `json:"directorios_criticos"`
}

// ImportResult reports a bulk import
type ImportResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}

// NewServices wires the services. db may be nil, in which case only the
// catalog-backed services are available and Businesses is nil.
func NewServices(db *sql.DB, cat *catalog.Catalog, cfg *config.Config, log logger.Logger) *Services {
	engine := scoring.NewEngine(cat)
	recs := newRecommendationService(engine, log)

	s := &Services{Recommendations: recs}

	var repos *repository.Repositories
	if db != nil {
		repos = repository.NewRepositories(db)
		s.Businesses = newBusinessService(repos, engine, log)
		s.Blog = newBlogService(cat, repos, log)
	}
	s.Sitemap = newSitemapService(cat, repos, cfg.SiteBaseURL, log)

	return s
}

// NewBusinessService creates a standalone business service
func NewBusinessService(repos *repository.Repositories, engine *scoring.Engine, log logger.Logger) BusinessService {
	return newBusinessService(repos, engine, log)
}

// NewRecommendationService creates a standalone recommendation service
func NewRecommendationService(engine *scoring.Engine, log logger.Logger) RecommendationService {
	return newRecommendationService(engine, log)
}

// NewBlogService creates a standalone blog service
func NewBlogService(cat *catalog.Catalog, repos *repository.Repositories, log logger.Logger) BlogService {
	return newBlogService(cat, repos, log)
}

// NewSitemapService creates a standalone sitemap service; repos may be nil
func NewSitemapService(cat *catalog.Catalog, repos *repository.Repositories, baseURL string, log logger.Logger) SitemapService {
	return newSitemapService(cat, repos, baseURL, log)
}
