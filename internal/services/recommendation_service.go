package services

import (
	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/errors"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/metrics"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scoring"
)

// recommendationServiceImpl implements RecommendationService
type recommendationServiceImpl struct {
	engine *scoring.Engine
	logger logger.Logger
}

func newRecommendationService(engine *scoring.Engine, log logger.Logger) RecommendationService {
	metrics.CatalogDirectories.Set(float64(engine.Catalog().Len()))
	return &recommendationServiceImpl{
		engine: engine,
		logger: log,
	}
}

// Recommend scores every directory for the category and city
func (s *recommendationServiceImpl) Recommend(category, city string) []scoring.Recommendation {
	category = catalog.NormalizeSlug(category)
	city = catalog.NormalizeSlug(city)

	recs := s.engine.Recommend(category, city)

	known := s.engine.Catalog().HasCategory(category)
	metrics.RecordRecommendation(category, known, len(recs))
	s.logger.Debug("Recommendations computed",
		"category", category,
		"city", city,
		"known_category", known,
		"results", len(recs),
	)

	return recs
}

// Summarize returns the recommendation list partitioned by priority
func (s *recommendationServiceImpl) Summarize(category, city string) scoring.Summary {
	return scoring.Summarize(s.Recommend(category, city))
}

// ListDirectories returns catalog directories filtered by category and tier
func (s *recommendationServiceImpl) ListDirectories(category, tier string) []catalog.Directory {
	return s.engine.Catalog().Filter(catalog.NormalizeSlug(category), catalog.NormalizeSlug(tier))
}

// GetDirectory looks up one directory
func (s *recommendationServiceImpl) GetDirectory(slug string) (*catalog.Directory, error) {
	d, ok := s.engine.Catalog().Directory(catalog.NormalizeSlug(slug))
	if !ok {
		return nil, errors.NotFound("directory not found", nil).
			WithOperation("GetDirectory").
			WithDetails(slug)
	}
	return &d, nil
}

// Catalog returns the reference tables in use
func (s *recommendationServiceImpl) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}
