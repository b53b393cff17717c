package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	uniqueViolation = "23505"
)

const businessColumns = `
	id, owner_id, slug, nombre, descripcion, direccion, telefono, email, web,
	categoria_slug, ciudad_slug, barrio_slug, lat, lng, valoracion_media,
	num_resenas, servicios_destacados, url_google_maps, horario,
	created_at, updated_at`

// businessRepository implements BusinessRepository
type businessRepository struct {
	db dbExecutor
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db dbExecutor) BusinessRepository {
	return &businessRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBusiness(row rowScanner) (*models.Business, error) {
	b := &models.Business{}
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Slug, &b.Name, &b.Description, &b.Address,
		&b.Phone, &b.Email, &b.Web, &b.CategorySlug, &b.CitySlug,
		&b.BarrioSlug, &b.Lat, &b.Lng, &b.Rating, &b.ReviewCount,
		&b.FeaturedServices, &b.GoogleMapsURL, &b.OpeningHours,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByID retrieves a business by ID
func (r *businessRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`

	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("business %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// GetBySlug retrieves a business by its public slug
func (r *businessRepository) GetBySlug(ctx context.Context, slug string) (*models.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE slug = $1`

	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("business with slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// Create inserts a new business
func (r *businessRepository) Create(ctx context.Context, b *models.Business) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.FeaturedServices == nil {
		b.FeaturedServices = pq.StringArray{}
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21)
	`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.OwnerID, b.Slug, b.Name, b.Description, b.Address, b.Phone,
		b.Email, b.Web, b.CategorySlug, b.CitySlug, b.BarrioSlug, b.Lat, b.Lng,
		b.Rating, b.ReviewCount, b.FeaturedServices, b.GoogleMapsURL,
		b.OpeningHours, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("business %s: %w", b.Slug, ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

// Update overwrites an existing business
func (r *businessRepository) Update(ctx context.Context, b *models.Business) error {
	if b.FeaturedServices == nil {
		b.FeaturedServices = pq.StringArray{}
	}
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE businesses SET
			owner_id = $2, slug = $3, nombre = $4, descripcion = $5, direccion = $6,
			telefono = $7, email = $8, web = $9, categoria_slug = $10,
			ciudad_slug = $11, barrio_slug = $12, lat = $13, lng = $14,
			valoracion_media = $15, num_resenas = $16, servicios_destacados = $17,
			url_google_maps = $18, horario = $19, updated_at = $20
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		b.ID, b.OwnerID, b.Slug, b.Name, b.Description, b.Address, b.Phone,
		b.Email, b.Web, b.CategorySlug, b.CitySlug, b.BarrioSlug, b.Lat, b.Lng,
		b.Rating, b.ReviewCount, b.FeaturedServices, b.GoogleMapsURL,
		b.OpeningHours, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("business %s: %w", b.Slug, ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to update business: %w", err)
	}

	return expectOneRow(result, b.ID)
}

// Delete removes a business
func (r *businessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves businesses matching the filters, best rated first
func (r *businessRepository) List(ctx context.Context, filters models.BusinessFilters) ([]models.Business, error) {
	where, args := buildWhere(filters)

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(filters.Offset, 0)

	query := `SELECT ` + businessColumns + ` FROM businesses` + where +
		fmt.Sprintf(` ORDER BY valoracion_media DESC NULLS LAST, num_resenas DESC, slug ASC LIMIT $%d OFFSET $%d`,
			len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]models.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate businesses: %w", err)
	}

	return businesses, nil
}

// Count returns the number of businesses matching the filters
func (r *businessRepository) Count(ctx context.Context, filters models.BusinessFilters) (int, error) {
	where, args := buildWhere(filters)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return count, nil
}

// CountByCategory returns business counts per category slug
func (r *businessRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	return r.countBy(ctx, "categoria_slug")
}

// CountByCity returns business counts per city slug
func (r *businessRepository) CountByCity(ctx context.Context) ([]models.CategoryCount, error) {
	return r.countBy(ctx, "ciudad_slug")
}

// countBy groups on a fixed column name; never pass user input
func (r *businessRepository) countBy(ctx context.Context, column string) ([]models.CategoryCount, error) {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM businesses GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s ASC`, column)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count businesses by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make([]models.CategoryCount, 0)
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Slug, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListBarrios returns the distinct category/city/barrio combinations in use
func (r *businessRepository) ListBarrios(ctx context.Context) ([]models.BarrioRef, error) {
	query := `
		SELECT DISTINCT categoria_slug, ciudad_slug, barrio_slug
		FROM businesses
		ORDER BY categoria_slug, ciudad_slug, barrio_slug
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query barrios: %w", err)
	}
	defer rows.Close()

	refs := make([]models.BarrioRef, 0)
	for rows.Next() {
		var ref models.BarrioRef
		if err := rows.Scan(&ref.CategorySlug, &ref.CitySlug, &ref.BarrioSlug); err != nil {
			return nil, fmt.Errorf("failed to scan barrio: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func buildWhere(filters models.BusinessFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filters.CategorySlug != "" {
		add("categoria_slug = $%d", filters.CategorySlug)
	}
	if filters.CitySlug != "" {
		add("ciudad_slug = $%d", filters.CitySlug)
	}
	if filters.BarrioSlug != "" {
		add("barrio_slug = $%d", filters.BarrioSlug)
	}
	if filters.OwnerID != nil {
		add("owner_id = $%d", *filters.OwnerID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func expectOneRow(result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("business %s: %w", id, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
