package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
)

// MockBusinessRepository implements BusinessRepository in memory
type MockBusinessRepository struct {
	mu         sync.Mutex
	businesses map[uuid.UUID]models.Business
	failWith   error
}

func NewMockBusinessRepository(seed ...models.Business) *MockBusinessRepository {
	m := &MockBusinessRepository{businesses: make(map[uuid.UUID]models.Business)}
	for _, b := range seed {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		m.businesses[b.ID] = b
	}
	return m
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	b, ok := m.businesses[id]
	if !ok {
		return nil, fmt.Errorf("business %s: %w", id, repository.ErrNotFound)
	}
	return &b, nil
}

func (m *MockBusinessRepository) GetBySlug(ctx context.Context, slug string) (*models.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, b := range m.businesses {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("business with slug %s: %w", slug, repository.ErrNotFound)
}

func (m *MockBusinessRepository) Create(ctx context.Context, b *models.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.businesses {
		if existing.Slug == b.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.businesses[b.ID] = *b
	return nil
}

func (m *MockBusinessRepository) Update(ctx context.Context, b *models.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.businesses[b.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range m.businesses {
		if id != b.ID && existing.Slug == b.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	b.UpdatedAt = time.Now()
	m.businesses[b.ID] = *b
	return nil
}

func (m *MockBusinessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.businesses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.businesses, id)
	return nil
}

func (m *MockBusinessRepository) filtered(filters models.BusinessFilters) []models.Business {
	var out []models.Business
	for _, b := range m.businesses {
		if filters.CategorySlug != "" && b.CategorySlug != filters.CategorySlug {
			continue
		}
		if filters.CitySlug != "" && b.CitySlug != filters.CitySlug {
			continue
		}
		if filters.BarrioSlug != "" && b.BarrioSlug != filters.BarrioSlug {
			continue
		}
		if filters.OwnerID != nil && !b.IsOwnedBy(*filters.OwnerID) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (m *MockBusinessRepository) List(ctx context.Context, filters models.BusinessFilters) ([]models.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	all := m.filtered(filters)
	if filters.Offset >= len(all) {
		return []models.Business{}, nil
	}
	end := len(all)
	if filters.Limit > 0 && filters.Offset+filters.Limit < end {
		end = filters.Offset + filters.Limit
	}
	return all[filters.Offset:end], nil
}

func (m *MockBusinessRepository) Count(ctx context.Context, filters models.BusinessFilters) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.filtered(filters)), nil
}

func (m *MockBusinessRepository) countBy(key func(models.Business) string) []models.CategoryCount {
	counts := make(map[string]int)
	for _, b := range m.businesses {
		counts[key(b)]++
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for slug, n := range counts {
		out = append(out, models.CategoryCount{Slug: slug, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (m *MockBusinessRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countBy(func(b models.Business) string { return b.CategorySlug }), nil
}

func (m *MockBusinessRepository) CountByCity(ctx context.Context) ([]models.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countBy(func(b models.Business) string { return b.CitySlug }), nil
}

func (m *MockBusinessRepository) ListBarrios(ctx context.Context) ([]models.BarrioRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	seen := make(map[models.BarrioRef]struct{})
	out := make([]models.BarrioRef, 0)
	for _, b := range m.businesses {
		ref := models.BarrioRef{CategorySlug: b.CategorySlug, CitySlug: b.CitySlug, BarrioSlug: b.BarrioSlug}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out, nil
}

// MockTransactionManager runs the function against the same mock
// repository. Changes are not rolled back.
type MockTransactionManager struct {
	repo  *MockBusinessRepository
	calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	m.calls++
	if err := fn(&repository.Repositories{Business: m.repo, Tx: m}); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func newMockRepositories(seed ...models.Business) (*repository.Repositories, *MockBusinessRepository, *MockTransactionManager) {
	repo := NewMockBusinessRepository(seed...)
	tx := &MockTransactionManager{repo: repo}
	return &repository.Repositories{Business: repo, Tx: tx}, repo, tx
}
