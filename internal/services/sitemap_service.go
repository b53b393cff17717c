package services

import (
	"context"
	"time"

	"github.com/vistoenmaps/vistoenmaps-api/internal/blog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/errors"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/metrics"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
	"github.com/vistoenmaps/vistoenmaps-api/internal/sitemap"
)

const storePageSize = 500

// sitemapServiceImpl implements SitemapService
type sitemapServiceImpl struct {
	catalog *catalog.Catalog
	repos   *repository.Repositories
	baseURL string
	logger  logger.Logger
	now     func() time.Time
}

func newSitemapService(cat *catalog.Catalog, repos *repository.Repositories, baseURL string, log logger.Logger) SitemapService {
	return &sitemapServiceImpl{
		catalog: cat,
		repos:   repos,
		baseURL: baseURL,
		logger:  log,
		now:     time.Now,
	}
}

// Generate renders sitemap.xml. Without a store only the category and
// city pages are listed; with one, barrio, business and blog pages follow.
func (s *sitemapServiceImpl) Generate(ctx context.Context) ([]byte, error) {
	in := sitemap.Input{
		BaseURL:    s.baseURL,
		LastMod:    s.now(),
		Categories: s.catalog.Categories(),
		Cities:     s.catalog.Cities(),
	}

	if s.repos != nil {
		barrios, businesses, err := s.loadStore(ctx)
		if err != nil {
			s.logger.Error("Failed to load sitemap entries", err)
			return nil, errors.DatabaseError("failed to load sitemap entries", err).WithOperation("Generate")
		}
		in.Barrios = barrios
		in.Businesses = businesses
		for _, post := range blog.Generate(in.Categories, in.Cities, businesses, in.LastMod) {
			in.BlogSlugs = append(in.BlogSlugs, post.Slug)
		}
	}

	set := sitemap.Build(in)
	data, err := set.Encode()
	if err != nil {
		return nil, errors.InternalError("failed to encode sitemap", err).WithOperation("Generate")
	}

	s.logger.Debug("Sitemap generated", "urls", len(set.URLs))
	return data, nil
}

func (s *sitemapServiceImpl) loadStore(ctx context.Context) ([]models.BarrioRef, []models.Business, error) {
	start := time.Now()
	barrios, err := s.repos.Business.ListBarrios(ctx)
	metrics.RecordDBQuery("list_barrios", time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}

	businesses, err := listAllBusinesses(ctx, s.repos.Business)
	if err != nil {
		return nil, nil, err
	}
	return barrios, businesses, nil
}

// listAllBusinesses pages through the whole store in ranking order
func listAllBusinesses(ctx context.Context, repo repository.BusinessRepository) ([]models.Business, error) {
	var businesses []models.Business
	for offset := 0; ; offset += storePageSize {
		start := time.Now()
		page, err := repo.List(ctx, models.BusinessFilters{Limit: storePageSize, Offset: offset})
		metrics.RecordDBQuery("list", time.Since(start), err)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, page...)
		if len(page) < storePageSize {
			return businesses, nil
		}
	}
}
