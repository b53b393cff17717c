package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Business represents a listed local business (negocio)
type Business struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	OwnerID          *uuid.UUID     `json:"owner_id,omitempty" db:"owner_id"`
	Slug             string         `json:"slug" db:"slug"`
	Name             string         `json:"nombre" db:"nombre"`
	Description      string         `json:"descripcion" db:"descripcion"`
	Address          string         `json:"direccion" db:"direccion"`
	Phone            string         `json:"telefono" db:"telefono"`
	Email            string         `json:"email" db:"email"`
	Web              string         `json:"web" db:"web"`
	CategorySlug     string         `json:"categoria_slug" db:"categoria_slug"`
	CitySlug         string         `json:"ciudad_slug" db:"ciudad_slug"`
	BarrioSlug       string         `json:"barrio_slug" db:"barrio_slug"`
	Lat              *float64       `json:"lat,omitempty" db:"lat"`
	Lng              *float64       `json:"lng,omitempty" db:"lng"`
	Rating           *float64       `json:"valoracion_media,omitempty" db:"valoracion_media"`
	ReviewCount      int            `json:"num_resenas" db:"num_resenas"`
	FeaturedServices pq.StringArray `json:"servicios_destacados" db:"servicios_destacados"`
	GoogleMapsURL    string         `json:"url_google_maps" db:"url_google_maps"`
	OpeningHours     string         `json:"horario" db:"horario"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// IsOwnedBy reports whether the user owns the business
func (b *Business) IsOwnedBy(userID uuid.UUID) bool {
	return b.OwnerID != nil && *b.OwnerID == userID
}

// BusinessInput is the request body for creating a business
type BusinessInput struct {
	Slug             string   `json:"slug" binding:"omitempty,min=3,max=120"`
	Name             string   `json:"nombre" binding:"required,min=3,max=200"`
	Description      string   `json:"descripcion" binding:"max=5000"`
	Address          string   `json:"direccion" binding:"max=300"`
	Phone            string   `json:"telefono" binding:"max=40"`
	Email            string   `json:"email" binding:"omitempty,email"`
	Web              string   `json:"web" binding:"omitempty,url"`
	CategorySlug     string   `json:"categoria_slug" binding:"required"`
	CitySlug         string   `json:"ciudad_slug" binding:"required"`
	BarrioSlug       string   `json:"barrio_slug" binding:"required"`
	Lat              *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng              *float64 `json:"lng" binding:"omitempty,longitude"`
	Rating           *float64 `json:"valoracion_media" binding:"omitempty,min=0,max=5"`
	ReviewCount      int      `json:"num_resenas" binding:"min=0"`
	FeaturedServices []string `json:"servicios_destacados" binding:"max=20,dive,max=100"`
	GoogleMapsURL    string   `json:"url_google_maps" binding:"omitempty,url"`
	OpeningHours     string   `json:"horario" binding:"max=500"`
}

// BusinessUpdate is a partial update; nil fields are left unchanged
type BusinessUpdate struct {
	Slug             *string   `json:"slug" binding:"omitempty,min=3,max=120"`
	Name             *string   `json:"nombre" binding:"omitempty,min=3,max=200"`
	Description      *string   `json:"descripcion" binding:"omitempty,max=5000"`
	Address          *string   `json:"direccion" binding:"omitempty,max=300"`
	Phone            *string   `json:"telefono" binding:"omitempty,max=40"`
	Email            *string   `json:"email" binding:"omitempty,email"`
	Web              *string   `json:"web" binding:"omitempty,url"`
	CategorySlug     *string   `json:"categoria_slug"`
	CitySlug         *string   `json:"ciudad_slug"`
	BarrioSlug       *string   `json:"barrio_slug"`
	Lat              *float64  `json:"lat" binding:"omitempty,latitude"`
	Lng              *float64  `json:"lng" binding:"omitempty,longitude"`
	Rating           *float64  `json:"valoracion_media" binding:"omitempty,min=0,max=5"`
	ReviewCount      *int      `json:"num_resenas" binding:"omitempty,min=0"`
	FeaturedServices *[]string `json:"servicios_destacados"`
	GoogleMapsURL    *string   `json:"url_google_maps" binding:"omitempty,url"`
	OpeningHours     *string   `json:"horario" binding:"omitempty,max=500"`
}

// Apply copies the set fields onto b
func (u *BusinessUpdate) Apply(b *Business) {
	setString(&b.Slug, u.Slug)
	setString(&b.Name, u.Name)
	setString(&b.Description, u.Description)
	setString(&b.Address, u.Address)
	setString(&b.Phone, u.Phone)
	setString(&b.Email, u.Email)
	setString(&b.Web, u.Web)
	setString(&b.CategorySlug, u.CategorySlug)
	setString(&b.CitySlug, u.CitySlug)
	setString(&b.BarrioSlug, u.BarrioSlug)
	setString(&b.GoogleMapsURL, u.GoogleMapsURL)
	setString(&b.OpeningHours, u.OpeningHours)

	if u.Lat != nil {
		b.Lat = u.Lat
	}
	if u.Lng != nil {
		b.Lng = u.Lng
	}
	if u.Rating != nil {
		b.Rating = u.Rating
	}
	if u.ReviewCount != nil {
		b.ReviewCount = *u.ReviewCount
	}
	if u.FeaturedServices != nil {
		b.FeaturedServices = pq.StringArray(*u.FeaturedServices)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ImportRecord is one entry of the negocios.json data export
type ImportRecord struct {
	Slug         string `json:"slug"`
	Name         string `json:"nombre"`
	CategorySlug string `json:"categoria_slug"`
	CitySlug     string `json:"ciudad_slug"`
	BarrioSlug   string `json:"barrio_slug"`
	Address      string `json:"direccion"`
	Phone        string `json:"telefono"`
	Web          string `json:"web"`
	OpeningHours string `json:"horario"`
	Coordinates  *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"coordenadas"`
	Rating           float64  `json:"valoracion_media"`
	ReviewCount      int      `json:"num_resenas"`
	FeaturedServices []string `json:"servicios_destacados"`
	GoogleMapsURL    string   `json:"url_google_maps"`
}

// ToBusiness converts an import record into an unowned business
func (r ImportRecord) ToBusiness() *Business {
	b := &Business{
		Slug:             r.Slug,
		Name:             r.Name,
		CategorySlug:     r.CategorySlug,
		CitySlug:         r.CitySlug,
		BarrioSlug:       r.BarrioSlug,
		Address:          r.Address,
		Phone:            r.Phone,
		Web:              r.Web,
		OpeningHours:     r.OpeningHours,
		ReviewCount:      r.ReviewCount,
		FeaturedServices: pq.StringArray(r.FeaturedServices),
		GoogleMapsURL:    r.GoogleMapsURL,
	}
	if r.Coordinates != nil && (r.Coordinates.Lat != 0 || r.Coordinates.Lng != 0) {
		lat, lng := r.Coordinates.Lat, r.Coordinates.Lng
		b.Lat, b.Lng = &lat, &lng
	}
	if r.Rating > 0 {
		rating := r.Rating
		b.Rating = &rating
	}
	return b
}

// BusinessFilters narrows business listings
type BusinessFilters struct {
	CategorySlug string
	CitySlug     string
	BarrioSlug   string
	OwnerID      *uuid.UUID
	Limit        int
	Offset       int
}

// CategoryCount is a number of businesses per slug
type CategoryCount struct {
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// BarrioRef identifies a neighbourhood within a category and city
type BarrioRef struct {
	CategorySlug string `json:"categoria_slug"`
	CitySlug     string `json:"ciudad_slug"`
	BarrioSlug   string `json:"barrio_slug"`
}
