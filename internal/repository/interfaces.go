package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
)

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlug is returned when a slug is already taken
	ErrDuplicateSlug = errors.New("slug already exists")
)

// BusinessRepository defines the interface for business data access
type BusinessRepository interface {
	// Basic CRUD operations
	GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	GetBySlug(ctx context.Context, slug string) (*models.Business, error)
	Create(ctx context.Context, business *models.Business) error
	Update(ctx context.Context, business *models.Business) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Listing and aggregates
	List(ctx context.Context, filters models.BusinessFilters) ([]models.Business, error)
	Count(ctx context.Context, filters models.BusinessFilters) (int, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
	CountByCity(ctx context.Context) ([]models.CategoryCount, error)
	ListBarrios(ctx context.Context) ([]models.BarrioRef, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Business BusinessRepository
	Tx       TransactionManager
}
