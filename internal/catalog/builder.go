package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scraper"
)

// Source is one raw citation-source record, as exported by the citation tracker
type Source struct {
	Domain          string `json:"domain"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	TimesFound      int    `json:"times_found"`
	ProjectsCount   int    `json:"projects_count"`
	IsPaid          bool   `json:"is_paid"`
	AllowsReviews   bool   `json:"allows_reviews"`
	DomainAuthority *int   `json:"domain_authority"`
	GeographicScope string `json:"geographic_scope"`
}

// ReadSources decodes a JSON array of citation sources
func ReadSources(r io.Reader) ([]Source, error) {
	var sources []Source
	if err := json.NewDecoder(r).Decode(&sources); err != nil {
		return nil, fmt.Errorf("failed to decode citation sources: %w", err)
	}
	return sources, nil
}

// SourceKind is how a grouped domain was classified
type SourceKind string

const (
	KindSocial   SourceKind = "social"
	KindKnown    SourceKind = "directory"
	KindInferred SourceKind = "directory_inferred"
	KindPattern  SourceKind = "directory_pattern"
	KindBusiness SourceKind = "business"
)

// SourceGroup aggregates the sources sharing a root domain
type SourceGroup struct {
	Domain        string     `json:"domain"`
	Subdomains    []string   `json:"subdomains"`
	Entries       int        `json:"entries"`
	TimesFound    int        `json:"times_found"`
	MaxProjects   int        `json:"max_projects"`
	Paid          bool       `json:"paid"`
	AllowsReviews bool       `json:"allows_reviews"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Kind          SourceKind `json:"kind"`
}

// IsDirectory reports whether the group is kept in the catalog
func (g SourceGroup) IsDirectory() bool {
	return g.Kind != KindBusiness
}

const (
	defaultDescription = "Directorio de negocios y servicios."
	defaultReach       = "nacional"
	defaultPopularity  = 40
)

// DefaultKnownDomains are domains always treated as directories
var DefaultKnownDomains = []string{
	"cylex.es", "paginasamarillas.es", "yelp.es", "yelp.com", "google.com",
	"hotfrog.es", "hotfrog.com", "europages.es", "europages.com", "tupaki.es",
	"vulka.es", "infoisinfo.es", "kompass.com", "qdq.com", "11870.com",
	"polomap.com", "habitissimo.es", "cronoshare.com", "starofservice.com",
	"listado.es", "globaliza.com", "trustpilot.com", "tripadvisor.es",
	"tripadvisor.com", "foursquare.com", "telelista.es", "cataloxy.es",
	"yalwa.es", "misterwhat.es", "telefono.es", "dondeesta.es",
	"buscoelmejor.com", "mapquest.com", "manta.com", "yellowpages.com",
	"bbb.org", "brownbook.net", "tupaginaweb.es", "guialocal.es",
	"macrotiendas.com", "maptons.com", "findglocal.com", "iglobal.co",
	"enrollbusiness.com", "tuugo.es", "cybo.com", "n49.com", "whereorg.com",
	"lasmejoresempresas.es",
}

// DefaultSocialDomains are social platforms listed with the social tier
var DefaultSocialDomains = []string{
	"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com",
	"youtube.com", "tiktok.com", "pinterest.com",
}

var (
	directoryDomainPattern = regexp.MustCompile(`(?i)directorio|listado|guia|paginas|busco|encuentra|portal|comparador|mejores|yellow|pages|local|review|rating|opiniones`)

	regionalPattern   = regexp.MustCompile(`(?i)galicia|gallego|galega|catalunya|catalan|catalun|badalona|vigo|leon|mallorca|vitoria|palmas|valencia|balear`)
	reviewsPattern    = regexp.MustCompile(`(?i)resena|reseña|review|opinion|valorac|rating|rated`)
	servicesPattern   = regexp.MustCompile(`(?i)cerrajer|electricist|fontaner|fumigad|limpi|mantenimi|presupuest|servicio|hogar|reparac|reserv|masaj|peluquer|barber|gimnasio|clinica|clínica|medic|médic|fisio|salud|booksy|mister.?minit|homeserve`)
	renovationPattern = regexp.MustCompile(`(?i)reform|construc|cristaler|persian|ventana|carpint|pintor|decora`)
	b2bPattern        = regexp.MustCompile(`(?i)b2b|industrial|comercio|proveedor|fabricant|import|export`)

	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
)

// RootDomain lowercases a domain and strips a leading www.
func RootDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(d, "www.")
}

// GroupDomain folds subdomains into their last two labels
func GroupDomain(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) >= 3 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return domain
}

// SlugFromDomain turns a domain into a directory slug
func SlugFromDomain(domain string) string {
	return slugInvalidChars.ReplaceAllString(strings.ReplaceAll(strings.ToLower(domain), ".", "-"), "")
}

// InferCategory guesses a directory category from its domain, name and
// description. Rules are checked in order and the first match wins.
func InferCategory(domain, name, description string) string {
	all := strings.ToLower(domain + " " + name + " " + description)

	switch {
	case regionalPattern.MatchString(all):
		return CategoryRegional
	case reviewsPattern.MatchString(all):
		return CategoryReviews
	case servicesPattern.MatchString(all):
		return CategoryServices
	case renovationPattern.MatchString(all):
		return CategoryRenovation
	case b2bPattern.MatchString(all):
		return CategoryB2B
	default:
		return CategoryGeneral
	}
}

// MetadataFetcher reads homepage metadata for enrichment
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (*scraper.Metadata, error)
}

// Builder turns raw citation sources into a directory table
type Builder struct {
	known       map[string]struct{}
	social      map[string]struct{}
	overrides   map[string]Directory
	fetcher     MetadataFetcher
	concurrency int
	log         logger.Logger
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithOverrides applies curated entries, matched by domain
func WithOverrides(dirs []Directory) BuilderOption {
	return func(b *Builder) {
		for _, d := range dirs {
			b.overrides[RootDomain(d.Domain)] = d
		}
	}
}

// WithKnownDomains adds domains always treated as directories
func WithKnownDomains(domains ...string) BuilderOption {
	return func(b *Builder) {
		for _, d := range domains {
			b.known[RootDomain(d)] = struct{}{}
		}
	}
}

// WithMetadataFetcher enables homepage enrichment for uncurated entries
func WithMetadataFetcher(f MetadataFetcher, concurrency int) BuilderOption {
	return func(b *Builder) {
		b.fetcher = f
		if concurrency > 0 {
			b.concurrency = concurrency
		}
	}
}

// WithBuilderLogger sets the logger used for progress and enrichment failures
func WithBuilderLogger(l logger.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// NewBuilder creates a builder with the default known and social domain lists
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		known:       toSet(DefaultKnownDomains),
		social:      toSet(DefaultSocialDomains),
		overrides:   make(map[string]Directory),
		concurrency: 4,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult is the directory table plus build statistics
type BuildResult struct {
	Directories  []Directory    `json:"directorios"`
	Groups       []SourceGroup  `json:"-"`
	Businesses   int            `json:"businesses"`
	Enriched     int            `json:"enriched"`
	EnrichFailed int            `json:"enrich_failed"`
	CuratedAdded int            `json:"curated_added"`
	ByTier       map[string]int `json:"by_tier"`
	ByCategory   map[string]int `json:"by_category"`
}

// Group aggregates sources by root domain and classifies each group.
// Groups keep the order in which their domain first appeared.
func (b *Builder) Group(sources []Source) []SourceGroup {
	var groups []*SourceGroup
	byDomain := make(map[string]*SourceGroup)
	subdomains := make(map[string]map[string]struct{})

	for _, s := range sources {
		domain := RootDomain(s.Domain)
		if domain == "" {
			continue
		}
		key := GroupDomain(domain)

		g, ok := byDomain[key]
		if !ok {
			g = &SourceGroup{Domain: key}
			byDomain[key] = g
			subdomains[key] = make(map[string]struct{})
			groups = append(groups, g)
		}

		if _, seen := subdomains[key][domain]; !seen {
			subdomains[key][domain] = struct{}{}
			g.Subdomains = append(g.Subdomains, domain)
		}
		g.Entries++
		g.TimesFound += s.TimesFound
		g.MaxProjects = max(g.MaxProjects, s.ProjectsCount)
		g.Paid = g.Paid || s.IsPaid
		g.AllowsReviews = g.AllowsReviews || s.AllowsReviews
		if g.Name == "" {
			g.Name = strings.TrimSpace(s.Name)
		}
		if g.Description == "" {
			g.Description = strings.TrimSpace(s.Description)
		}
	}

	out := make([]SourceGroup, 0, len(groups))
	for _, g := range groups {
		g.Kind = b.classify(*g)
		out = append(out, *g)
	}
	return out
}

func (b *Builder) classify(g SourceGroup) SourceKind {
	if _, ok := b.social[g.Domain]; ok {
		return KindSocial
	}
	if _, ok := b.known[g.Domain]; ok {
		return KindKnown
	}
	if _, ok := b.overrides[g.Domain]; ok {
		return KindKnown
	}
	if g.TimesFound >= 8 || g.Entries >= 3 || g.MaxProjects >= 3 {
		return KindInferred
	}
	if directoryDomainPattern.MatchString(g.Domain) {
		return KindPattern
	}
	return KindBusiness
}

// Build groups, filters, categorises and orders the sources
func (b *Builder) Build(ctx context.Context, sources []Source) (*BuildResult, error) {
	groups := b.Group(sources)
	result := &BuildResult{
		Groups:     groups,
		ByTier:     make(map[string]int),
		ByCategory: make(map[string]int),
	}

	var dirs []Directory
	var curated []bool
	seen := make(map[string]struct{})

	for _, g := range groups {
		if !g.IsDirectory() {
			result.Businesses++
			continue
		}
		d, isCurated := b.directoryFor(g)
		if _, dup := seen[d.Slug]; dup {
			b.log.Warn("Skipping duplicate directory slug", "slug", d.Slug, "domain", g.Domain)
			continue
		}
		seen[d.Slug] = struct{}{}
		dirs = append(dirs, d)
		curated = append(curated, isCurated)
	}

	// Curated entries stay in the table even when the export no longer cites them
	for _, domain := range b.overrideDomains() {
		g := SourceGroup{Domain: domain}
		g.Kind = b.classify(g)
		d, _ := b.directoryFor(g)
		if _, dup := seen[d.Slug]; dup {
			continue
		}
		b.log.Debug("Keeping curated directory absent from sources", "slug", d.Slug, "domain", domain)
		seen[d.Slug] = struct{}{}
		dirs = append(dirs, d)
		curated = append(curated, true)
		result.CuratedAdded++
	}

	if b.fetcher != nil {
		enriched, failed, err := b.enrich(ctx, dirs, curated)
		if err != nil {
			return nil, err
		}
		result.Enriched, result.EnrichFailed = enriched, failed
	}

	v := getValidator()
	for _, d := range dirs {
		if err := v.Struct(d); err != nil {
			return nil, fmt.Errorf("invalid directory %s: %w", d.Slug, err)
		}
		result.ByTier[d.Tier]++
		result.ByCategory[d.Category]++
	}

	SortDirectories(dirs)
	result.Directories = dirs

	b.log.Info("Directory table built",
		"groups", len(groups),
		"directories", len(dirs),
		"businesses", result.Businesses,
		"curated_added", result.CuratedAdded,
		"enriched", result.Enriched,
	)
	return result, nil
}

// overrideDomains returns the curated domains in a stable order
func (b *Builder) overrideDomains() []string {
	domains := make([]string, 0, len(b.overrides))
	for d := range b.overrides {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

func (b *Builder) directoryFor(g SourceGroup) (Directory, bool) {
	d := Directory{
		Slug:          SlugFromDomain(g.Domain),
		Name:          g.Name,
		Domain:        g.Domain,
		URL:           "https://www." + g.Domain,
		Description:   g.Description,
		Tier:          TierStandard,
		Free:          !g.Paid,
		AllowsReviews: g.AllowsReviews,
		Reach:         defaultReach,
		Popularity:    defaultPopularity,
	}
	if g.Kind == KindSocial {
		d.Tier = TierSocial
		d.Category = CategorySocial
	} else {
		d.Category = InferCategory(g.Domain, g.Name, g.Description)
	}
	if d.Name == "" {
		d.Name = g.Domain
	}
	if d.Description == "" {
		d.Description = defaultDescription
	}

	o, ok := b.overrides[g.Domain]
	if !ok {
		return d, false
	}

	if o.Slug != "" {
		d.Slug = o.Slug
	}
	if o.Name != "" {
		d.Name = o.Name
	}
	if o.URL != "" {
		d.URL = o.URL
	}
	if o.Description != "" {
		d.Description = o.Description
	}
	if o.Tier != "" {
		d.Tier = o.Tier
	}
	if o.Category != "" {
		d.Category = o.Category
	}
	if o.Reach != "" {
		d.Reach = o.Reach
	}
	if o.Popularity > 0 {
		d.Popularity = o.Popularity
	}
	d.Free = o.Free
	d.AllowsReviews = o.AllowsReviews
	return d, true
}

// enrich fills names and descriptions of uncurated entries from their homepages.
// Fetch failures are logged and counted, never fatal.
func (b *Builder) enrich(ctx context.Context, dirs []Directory, curated []bool) (int, int, error) {
	var enriched, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range dirs {
		if curated[i] || (dirs[i].Name != dirs[i].Domain && dirs[i].Description != defaultDescription) {
			continue
		}
		i := i
		g.Go(func() error {
			m, err := b.fetcher.FetchMetadata(gCtx, "https://"+dirs[i].Domain)
			if err != nil {
				failed.Add(1)
				b.log.Warn("Metadata fetch failed", "domain", dirs[i].Domain, "error", err.Error())
				return nil
			}
			if dirs[i].Name == dirs[i].Domain {
				if name := m.Name(); name != "" {
					dirs[i].Name = name
				}
			}
			if dirs[i].Description == defaultDescription && m.Description != "" {
				dirs[i].Description = m.Description
			}
			enriched.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return int(enriched.Load()), int(failed.Load()), nil
}

// SortDirectories orders premium first, then social, then the rest, each by
// popularity descending. Ties keep their current order.
func SortDirectories(dirs []Directory) {
	rank := func(tier string) int {
		switch tier {
		case TierPremium:
			return 0
		case TierSocial:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		ri, rj := rank(dirs[i].Tier), rank(dirs[j].Tier)
		if ri != rj {
			return ri < rj
		}
		return dirs[i].Popularity > dirs[j].Popularity
	})
}

// MarshalDocument writes a complete catalog document: the reference tables of
// base with dirs as the directory table. The result is parsed back so a
// document that would not load is never returned.
func MarshalDocument(base *Catalog, dirs []Directory) ([]byte, error) {
	doc := document{
		Categories:  base.Categories(),
		Cities:      base.Cities(),
		Critical:    sortedKeys(base.critical),
		Directories: dirs,
	}
	doc.Specialized.Services = sortedKeys(base.services)
	doc.Specialized.Reviews = sortedKeys(base.reviews)
	doc.Specialized.B2B = sortedKeys(base.b2b)

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	if _, err := Parse(data); err != nil {
		return nil, err
	}
	return data, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
