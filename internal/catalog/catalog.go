// Package catalog holds the static reference tables used to recommend
// third-party business directories: the directory table itself, the
// business-category relevance map, the specialised directory sets and the
// city region table. A Catalog is built once and never mutated, so it is
// safe to share between goroutines.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalogYAML []byte

// Directory categories
const (
	CategoryGeneral    = "general"
	CategoryReviews    = "resenas"
	CategoryServices   = "servicios"
	CategoryRenovation = "reformas"
	CategoryB2B        = "b2b"
	CategorySocial     = "social"
	CategoryRegional   = "regional"
)

// Directory tiers
const (
	TierPremium  = "premium"
	TierStandard = "estandar"
	TierBasic    = "basico"
	TierSocial   = "social"
)

// RegionalTag marks a city as eligible for regional directory bonuses
const RegionalTag = "regional"

// Directory is a third-party business-listing website
type Directory struct {
	Slug          string `json:"slug" yaml:"slug" validate:"required"`
	Name          string `json:"nombre" yaml:"nombre" validate:"required"`
	Domain        string `json:"dominio" yaml:"dominio" validate:"required"`
	URL           string `json:"url" yaml:"url" validate:"omitempty,url"`
	Description   string `json:"descripcion" yaml:"descripcion"`
	Tier          string `json:"tipo" yaml:"tipo" validate:"oneof=premium estandar basico social"`
	Category      string `json:"categoria" yaml:"categoria" validate:"oneof=general resenas servicios reformas b2b social regional"`
	Free          bool   `json:"gratis" yaml:"gratis"`
	AllowsReviews bool   `json:"permite_resenas" yaml:"permite_resenas"`
	Reach         string `json:"alcance" yaml:"alcance"`
	Popularity    int    `json:"popularidad" yaml:"popularidad" validate:"min=0,max=100"`
}

// BusinessCategory is a business category and the directory categories
// relevant to it, most relevant first
type BusinessCategory struct {
	Slug        string   `json:"slug" yaml:"slug" validate:"required"`
	Name        string   `json:"nombre" yaml:"nombre"`
	Directories []string `json:"directorios" yaml:"directorios" validate:"required,min=1,dive,oneof=general resenas servicios reformas b2b social regional"`
}

// City is a city slug with the region tags that apply to it
type City struct {
	Slug    string   `json:"slug" yaml:"slug" validate:"required"`
	Name    string   `json:"nombre" yaml:"nombre"`
	Regions []string `json:"regiones" yaml:"regiones"`
}

// document mirrors the YAML layout
type document struct {
	Categories  []BusinessCategory `yaml:"categorias" validate:"dive"`
	Cities      []City             `yaml:"ciudades" validate:"dive"`
	Critical    []string           `yaml:"criticos"`
	Specialized struct {
		Services []string `yaml:"servicios"`
		Reviews  []string `yaml:"resenas"`
		B2B      []string `yaml:"b2b"`
	} `yaml:"especializados"`
	Directories []Directory `yaml:"directorios" validate:"required,min=1,dive"`
}

// Catalog is the immutable set of reference tables
type Catalog struct {
	directories []Directory
	bySlug      map[string]int

	categories []BusinessCategory
	relevance  map[string][]string
	cities     []City
	regions    map[string][]string
	critical   map[string]struct{}
	services   map[string]struct{}
	reviews    map[string]struct{}
	b2b        map[string]struct{}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	defaultCatalog    *Catalog
	defaultCatalogErr error
	defaultOnce       sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Default returns the catalog embedded in the binary, parsed once
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = Parse(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// Load reads a catalog from a YAML file, or the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if err := getValidator().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		directories: make([]Directory, len(doc.Directories)),
		bySlug:      make(map[string]int, len(doc.Directories)),
		categories:  doc.Categories,
		relevance:   make(map[string][]string, len(doc.Categories)),
		cities:      doc.Cities,
		regions:     make(map[string][]string, len(doc.Cities)),
	}

	copy(c.directories, doc.Directories)
	for i, d := range c.directories {
		if _, dup := c.bySlug[d.Slug]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate directory slug %q", d.Slug)
		}
		c.bySlug[d.Slug] = i
	}

	for _, cat := range doc.Categories {
		if _, dup := c.relevance[cat.Slug]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate category slug %q", cat.Slug)
		}
		c.relevance[cat.Slug] = cat.Directories
	}

	for _, city := range doc.Cities {
		if _, dup := c.regions[city.Slug]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate city slug %q", city.Slug)
		}
		c.regions[city.Slug] = city.Regions
	}

	var err error
	if c.critical, err = c.slugSet("criticos", doc.Critical); err != nil {
		return nil, err
	}
	if c.services, err = c.slugSet("especializados.servicios", doc.Specialized.Services); err != nil {
		return nil, err
	}
	if c.reviews, err = c.slugSet("especializados.resenas", doc.Specialized.Reviews); err != nil {
		return nil, err
	}
	if c.b2b, err = c.slugSet("especializados.b2b", doc.Specialized.B2B); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) slugSet(name string, slugs []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		if _, ok := c.bySlug[slug]; !ok {
			return nil, fmt.Errorf("invalid catalog: %s references unknown directory %q", name, slug)
		}
		set[slug] = struct{}{}
	}
	return set, nil
}

// Directories returns the directory table in catalog order
func (c *Catalog) Directories() []Directory {
	out := make([]Directory, len(c.directories))
	copy(out, c.directories)
	return out
}

// Len returns the number of directories
func (c *Catalog) Len() int {
	return len(c.directories)
}

// Directory looks up a directory by slug
func (c *Catalog) Directory(slug string) (Directory, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Directory{}, false
	}
	return c.directories[i], true
}

// Filter returns directories matching the category and tier; empty values match everything
func (c *Catalog) Filter(category, tier string) []Directory {
	out := make([]Directory, 0, len(c.directories))
	for _, d := range c.directories {
		if category != "" && d.Category != category {
			continue
		}
		if tier != "" && d.Tier != tier {
			continue
		}
		out = append(out, d)
	}
	return out
}

// RelevantCategories returns the directory categories relevant to a business
// category. Unknown categories fall back to general.
func (c *Catalog) RelevantCategories(businessCategory string) []string {
	if cats, ok := c.relevance[businessCategory]; ok {
		return append([]string(nil), cats...)
	}
	return []string{CategoryGeneral}
}

// HasCategory reports whether the business category is known
func (c *Catalog) HasCategory(slug string) bool {
	_, ok := c.relevance[slug]
	return ok
}

// HasCity reports whether the city is known
func (c *Catalog) HasCity(slug string) bool {
	_, ok := c.regions[slug]
	return ok
}

// IsRegional reports whether a city is eligible for regional directories
func (c *Catalog) IsRegional(city string) bool {
	for _, tag := range c.regions[city] {
		if tag == RegionalTag {
			return true
		}
	}
	return false
}

// IsCritical reports whether every business should be listed in the directory
func (c *Catalog) IsCritical(slug string) bool {
	_, ok := c.critical[slug]
	return ok
}

// IsServiceDirectory reports whether the directory specialises in services
func (c *Catalog) IsServiceDirectory(slug string) bool {
	_, ok := c.services[slug]
	return ok
}

// IsReviewPlatform reports whether the directory is a major review platform
func (c *Catalog) IsReviewPlatform(slug string) bool {
	_, ok := c.reviews[slug]
	return ok
}

// IsB2BDirectory reports whether the directory targets businesses
func (c *Catalog) IsB2BDirectory(slug string) bool {
	_, ok := c.b2b[slug]
	return ok
}

// CriticalSlugs returns the critical directory slugs, sorted
func (c *Catalog) CriticalSlugs() []string {
	return sortedKeys(c.critical)
}

// Categories returns the business categories in catalog order
func (c *Catalog) Categories() []BusinessCategory {
	return append([]BusinessCategory(nil), c.categories...)
}

// Cities returns the cities in catalog order
func (c *Catalog) Cities() []City {
	return append([]City(nil), c.cities...)
}

// CategoryLabels maps directory categories to display labels
var CategoryLabels = map[string]string{
	CategoryGeneral:    "Directorios Generales",
	CategoryReviews:    "Plataformas de Reseñas",
	CategoryServices:   "Servicios y Presupuestos",
	CategoryRenovation: "Reformas y Hogar",
	CategoryB2B:        "B2B / Empresarial",
	CategorySocial:     "Redes Sociales",
	CategoryRegional:   "Directorios Regionales",
}

// NormalizeSlug lowercases and trims a slug from user input
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
