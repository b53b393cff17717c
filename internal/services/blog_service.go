package services

import (
	"context"
	"time"

	"github.com/vistoenmaps/vistoenmaps-api/internal/blog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/errors"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
)

// blogServiceImpl implements BlogService
type blogServiceImpl struct {
	catalog *catalog.Catalog
	repos   *repository.Repositories
	logger  logger.Logger
	now     func() time.Time
}

func newBlogService(cat *catalog.Catalog, repos *repository.Repositories, log logger.Logger) BlogService {
	return &blogServiceImpl{
		catalog: cat,
		repos:   repos,
		logger:  log,
		now:     time.Now,
	}
}

// Generate builds every ranking post from the stored businesses
func (s *blogServiceImpl) Generate(ctx context.Context) ([]blog.Post, error) {
	businesses, err := listAllBusinesses(ctx, s.repos.Business)
	if err != nil {
		s.logger.Error("Failed to load businesses for blog", err)
		return nil, errors.DatabaseError("failed to load businesses", err).WithOperation("Generate")
	}

	posts := blog.Generate(s.catalog.Categories(), s.catalog.Cities(), businesses, s.now())
	if posts == nil {
		posts = []blog.Post{}
	}
	s.logger.Debug("Blog posts generated", "posts", len(posts), "businesses", len(businesses))
	return posts, nil
}

// GetBySlug returns one ranking post
func (s *blogServiceImpl) GetBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	posts, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}

	post, ok := blog.Find(posts, catalog.NormalizeSlug(slug))
	if !ok {
		return nil, errors.NotFound("blog post not found", nil).WithOperation("GetBySlug").WithDetails(slug)
	}
	return &post, nil
}
