package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/errors"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/metrics"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scoring"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// businessServiceImpl implements BusinessService
type businessServiceImpl struct {
	repos  *repository.Repositories
	engine *scoring.Engine
	logger logger.Logger
}

func newBusinessService(repos *repository.Repositories, engine *scoring.Engine, log logger.Logger) BusinessService {
	return &businessServiceImpl{
		repos:  repos,
		engine: engine,
		logger: log,
	}
}

// List returns a page of businesses matching the filters
func (s *businessServiceImpl) List(ctx context.Context, filters models.BusinessFilters) (*BusinessPage, error) {
	filters.CategorySlug = catalog.NormalizeSlug(filters.CategorySlug)
	filters.CitySlug = catalog.NormalizeSlug(filters.CitySlug)
	filters.BarrioSlug = catalog.NormalizeSlug(filters.BarrioSlug)
	if filters.Limit <= 0 {
		filters.Limit = defaultPageSize
	}
	filters.Limit = min(filters.Limit, maxPageSize)
	filters.Offset = max(filters.Offset, 0)

	var items []models.Business
	err := s.timed("list", func() (err error) {
		items, err = s.repos.Business.List(ctx, filters)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list businesses", err)
		return nil, s.storeError("List", "failed to list businesses", err)
	}

	var total int
	err = s.timed("count", func() (err error) {
		total, err = s.repos.Business.Count(ctx, filters)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to count businesses", err)
		return nil, s.storeError("List", "failed to count businesses", err)
	}

	return &BusinessPage{
		Items:  items,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// GetBySlug retrieves a business by its public slug
func (s *businessServiceImpl) GetBySlug(ctx context.Context, slug string) (*models.Business, error) {
	var b *models.Business
	err := s.timed("get_by_slug", func() (err error) {
		b, err = s.repos.Business.GetBySlug(ctx, catalog.NormalizeSlug(slug))
		return err
	})
	if err != nil {
		return nil, s.storeError("GetBySlug", "business not found", err)
	}
	return b, nil
}

// ListMine returns the businesses owned by the user
func (s *businessServiceImpl) ListMine(ctx context.Context, user *models.User) ([]models.Business, error) {
	filters := models.BusinessFilters{OwnerID: &user.ID, Limit: maxPageSize}

	var items []models.Business
	err := s.timed("list", func() (err error) {
		items, err = s.repos.Business.List(ctx, filters)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list owned businesses", err, "user_id", user.ID.String())
		return nil, s.storeError("ListMine", "failed to list businesses", err)
	}
	return items, nil
}

// Create stores a new business owned by the user
func (s *businessServiceImpl) Create(ctx context.Context, user *models.User, input *models.BusinessInput) (*models.Business, error) {
	slug := input.Slug
	if slug == "" {
		slug = input.Name
	}

	ownerID := user.ID
	b := &models.Business{
		OwnerID:          &ownerID,
		Slug:             slug,
		Name:             input.Name,
		Description:      input.Description,
		Address:          input.Address,
		Phone:            input.Phone,
		Email:            input.Email,
		Web:              input.Web,
		CategorySlug:     input.CategorySlug,
		CitySlug:         input.CitySlug,
		BarrioSlug:       input.BarrioSlug,
		Lat:              input.Lat,
		Lng:              input.Lng,
		Rating:           input.Rating,
		ReviewCount:      input.ReviewCount,
		FeaturedServices: pq.StringArray(input.FeaturedServices),
		GoogleMapsURL:    input.GoogleMapsURL,
		OpeningHours:     input.OpeningHours,
	}
	normalize(b)

	if err := s.validate(b); err != nil {
		return nil, err.WithOperation("Create")
	}

	err := s.timed("create", func() error {
		return s.repos.Business.Create(ctx, b)
	})
	if err != nil {
		if !stderrors.Is(err, repository.ErrDuplicateSlug) {
			s.logger.Error("Failed to create business", err, "slug", b.Slug)
		}
		return nil, s.storeError("Create", "failed to create business", err)
	}

	s.logger.Info("Business created", "business_id", b.ID.String(), "slug", b.Slug, "owner_id", ownerID.String())
	return b, nil
}

// Update applies a partial update. Only the owner or an admin may update.
func (s *businessServiceImpl) Update(ctx context.Context, user *models.User, id uuid.UUID, update *models.BusinessUpdate) (*models.Business, error) {
	b, err := s.authorize(ctx, user, id, "Update")
	if err != nil {
		return nil, err
	}

	update.Apply(b)
	normalize(b)

	if appErr := s.validate(b); appErr != nil {
		return nil, appErr.WithOperation("Update")
	}

	err = s.timed("update", func() error {
		return s.repos.Business.Update(ctx, b)
	})
	if err != nil {
		if !stderrors.Is(err, repository.ErrDuplicateSlug) {
			s.logger.Error("Failed to update business", err, "business_id", id.String())
		}
		return nil, s.storeError("Update", "failed to update business", err)
	}

	s.logger.Info("Business updated", "business_id", id.String(), "user_id", user.ID.String())
	return b, nil
}

// Delete removes a business. Only the owner or an admin may delete.
func (s *businessServiceImpl) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	if _, err := s.authorize(ctx, user, id, "Delete"); err != nil {
		return err
	}

	err := s.timed("delete", func() error {
		return s.repos.Business.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete business", err, "business_id", id.String())
		return s.storeError("Delete", "failed to delete business", err)
	}

	s.logger.Info("Business deleted", "business_id", id.String(), "user_id", user.ID.String())
	return nil
}

// Recommendations scores the directories for a stored business
func (s *businessServiceImpl) Recommendations(ctx context.Context, slug string) (*BusinessRecommendations, error) {
	b, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	recs := s.engine.Recommend(b.CategorySlug, b.CitySlug)
	metrics.RecordRecommendation(b.CategorySlug, s.engine.Catalog().HasCategory(b.CategorySlug), len(recs))

	return &BusinessRecommendations{
		Business:        b,
		Recommendations: recs,
		Summary:         scoring.Summarize(recs),
	}, nil
}

// Stats returns the admin overview
func (s *businessServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Directories: s.engine.Catalog().Len(),
		Critical:    s.engine.Catalog().CriticalSlugs(),
	}

	err := s.timed("stats", func() (err error) {
		if stats.Businesses, err = s.repos.Business.Count(ctx, models.BusinessFilters{}); err != nil {
			return err
		}
		if stats.ByCategory, err = s.repos.Business.CountByCategory(ctx); err != nil {
			return err
		}
		stats.ByCity, err = s.repos.Business.CountByCity(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to compute stats", err)
		return nil, s.storeError("Stats", "failed to compute stats", err)
	}

	metrics.BusinessesTotal.Set(float64(stats.Businesses))
	return stats, nil
}

// Import inserts unowned businesses from a data export in one transaction.
// Records whose slug already exists are skipped.
func (s *businessServiceImpl) Import(ctx context.Context, records []models.ImportRecord) (*ImportResult, error) {
	result := &ImportResult{Skipped: []string{}}

	err := s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		for _, rec := range records {
			b := rec.ToBusiness()
			if b.Slug == "" {
				b.Slug = b.Name
			}
			normalize(b)

			if appErr := s.validate(b); appErr != nil {
				s.logger.Warn("Skipping invalid business", "slug", b.Slug, "error", appErr.Message)
				result.Skipped = append(result.Skipped, b.Slug)
				continue
			}

			if _, err := repos.Business.GetBySlug(ctx, b.Slug); err == nil {
				s.logger.Debug("Skipping existing business", "slug", b.Slug)
				result.Skipped = append(result.Skipped, b.Slug)
				continue
			} else if !stderrors.Is(err, repository.ErrNotFound) {
				return err
			}

			if err := repos.Business.Create(ctx, b); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Business import failed", err, "records", len(records))
		return nil, s.storeError("Import", "failed to import businesses", err)
	}

	s.logger.Info("Business import finished", "created", result.Created, "skipped", len(result.Skipped))
	return result, nil
}

func (s *businessServiceImpl) authorize(ctx context.Context, user *models.User, id uuid.UUID, op string) (*models.Business, error) {
	var b *models.Business
	err := s.timed("get_by_id", func() (err error) {
		b, err = s.repos.Business.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.storeError(op, "business not found", err)
	}

	if !user.CanManage(b) {
		s.logger.Warn("Business access denied", "business_id", id.String(), "user_id", user.ID.String())
		return nil, errors.Forbidden("access denied", nil).WithOperation(op)
	}
	return b, nil
}

func (s *businessServiceImpl) validate(b *models.Business) *errors.AppError {
	cat := s.engine.Catalog()

	switch {
	case len(b.Slug) < 3:
		return errors.ValidationError("slug must have at least 3 characters", nil).WithDetails(b.Slug)
	case len(b.Name) < 3:
		return errors.ValidationError("nombre must have at least 3 characters", nil)
	case !cat.HasCategory(b.CategorySlug):
		return errors.InvalidInput("unknown categoria_slug", nil).WithDetails(b.CategorySlug)
	case !cat.HasCity(b.CitySlug):
		return errors.InvalidInput("unknown ciudad_slug", nil).WithDetails(b.CitySlug)
	case b.BarrioSlug == "":
		return errors.ValidationError("barrio_slug is required", nil)
	}
	return nil
}

func normalize(b *models.Business) {
	b.Slug = models.Slugify(b.Slug)
	b.Name = strings.TrimSpace(b.Name)
	b.CategorySlug = catalog.NormalizeSlug(b.CategorySlug)
	b.CitySlug = catalog.NormalizeSlug(b.CitySlug)
	b.BarrioSlug = models.Slugify(b.BarrioSlug)
}

// storeError maps repository errors onto application errors
func (s *businessServiceImpl) storeError(op, message string, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(message, err).WithOperation(op)
	case stderrors.Is(err, repository.ErrDuplicateSlug):
		return errors.Conflict("slug already exists", err).WithOperation(op)
	default:
		return errors.DatabaseError(message, err).WithOperation(op)
	}
}

func (s *businessServiceImpl) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if stderrors.Is(err, repository.ErrNotFound) {
		metrics.RecordDBQuery(op, time.Since(start), nil)
	} else {
		metrics.RecordDBQuery(op, time.Since(start), err)
	}
	return err
}
