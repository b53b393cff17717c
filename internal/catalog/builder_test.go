package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistoenmaps/vistoenmaps-api/internal/scraper"
)

const rawSources = `[
  {"domain": "es.cylex.es", "name": "Cylex", "times_found": 10, "projects_count": 2},
  {"domain": "www.cylex.es", "times_found": 5},
  {"domain": "cylex.es", "allows_reviews": true, "times_found": 1},
  {"domain": "facebook.com", "times_found": 40},
  {"domain": "guiadebadalona.es", "name": "Guia de Badalona", "description": "Directorio de comercios y profesionales de Badalona.", "times_found": 1},
  {"domain": "maptons-clone.com", "times_found": 9, "is_paid": true},
  {"domain": "fontaneriaperez.es", "name": "Fontaneria Perez", "times_found": 1},
  {"domain": "", "times_found": 3}
]`

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	meta  map[string]*scraper.Metadata
}

func (f *fakeFetcher) FetchMetadata(_ context.Context, url string) (*scraper.Metadata, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if m, ok := f.meta[url]; ok {
		return m, nil
	}
	return nil, errors.New("unreachable")
}

func readRawSources(t *testing.T) []Source {
	t.Helper()
	sources, err := ReadSources(strings.NewReader(rawSources))
	require.NoError(t, err)
	return sources
}

func TestDomainHelpers(t *testing.T) {
	tests := []struct {
		in    string
		root  string
		group string
		slug  string
	}{
		{"www.Cylex.es", "cylex.es", "cylex.es", "cylex-es"},
		{"es.polomap.com", "es.polomap.com", "polomap.com", "es-polomap-com"},
		{"11870.com", "11870.com", "11870.com", "11870-com"},
		{" localo.site ", "localo.site", "localo.site", "localo-site"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := RootDomain(tt.in)
			assert.Equal(t, tt.root, root)
			assert.Equal(t, tt.group, GroupDomain(root))
			assert.Equal(t, tt.slug, SlugFromDomain(root))
		})
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		domain, name, description string
		want                      string
	}{
		{"paxinasgalegas.es", "Paxinas Galegas", "Directorio de empresas y profesionales de Galicia.", CategoryRegional},
		{"top-rated.online", "Top Rated", "Directorio de negocios mejor valorados con resenas.", CategoryReviews},
		{"cerrajerosenespana.click", "Cerrajeros en Espana", "Directorio especializado en cerrajeros por ciudad.", CategoryServices},
		{"planreforma.com", "PlanReforma", "Directorio de profesionales de reforma y decoracion.", CategoryRenovation},
		{"industriales.net", "Industriales", "Directorio industrial de fabricantes.", CategoryB2B},
		{"cybo.com", "Cybo", "Directorio global de negocios con informacion de contacto y horarios.", CategoryGeneral},
		// regional wins over services
		{"mejoresdevigo.es", "Mejores de Vigo", "Peluquerias y clinicas de Vigo.", CategoryRegional},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.domain, tt.name, tt.description))
		})
	}
}

func TestBuilderGroup(t *testing.T) {
	groups := NewBuilder().Group(readRawSources(t))

	require.Len(t, groups, 5)

	cylex := groups[0]
	assert.Equal(t, "cylex.es", cylex.Domain)
	assert.Equal(t, []string{"es.cylex.es", "cylex.es"}, cylex.Subdomains)
	assert.Equal(t, 3, cylex.Entries)
	assert.Equal(t, 16, cylex.TimesFound)
	assert.Equal(t, 2, cylex.MaxProjects)
	assert.True(t, cylex.AllowsReviews)
	assert.Equal(t, "Cylex", cylex.Name)
	assert.Equal(t, KindKnown, cylex.Kind)

	kinds := make(map[string]SourceKind)
	for _, g := range groups {
		kinds[g.Domain] = g.Kind
	}
	assert.Equal(t, KindSocial, kinds["facebook.com"])
	assert.Equal(t, KindPattern, kinds["guiadebadalona.es"])
	assert.Equal(t, KindInferred, kinds["maptons-clone.com"])
	assert.Equal(t, KindBusiness, kinds["fontaneriaperez.es"])
}

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder(WithOverrides([]Directory{{
		Slug:          "cylex-es",
		Name:          "Cylex",
		Domain:        "cylex.es",
		URL:           "https://www.cylex.es",
		Tier:          TierPremium,
		Category:      CategoryGeneral,
		Free:          true,
		AllowsReviews: true,
		Reach:         "internacional",
		Popularity:    90,
	}}))

	result, err := b.Build(context.Background(), readRawSources(t))
	require.NoError(t, err)

	require.Len(t, result.Directories, 4)
	assert.Equal(t, 1, result.Businesses)

	var slugs []string
	for _, d := range result.Directories {
		slugs = append(slugs, d.Slug)
	}
	assert.Equal(t, []string{"cylex-es", "facebook-com", "guiadebadalona-es", "maptons-clone-com"}, slugs)

	cylex := result.Directories[0]
	assert.Equal(t, 90, cylex.Popularity)
	assert.Equal(t, "internacional", cylex.Reach)

	facebook := result.Directories[1]
	assert.Equal(t, TierSocial, facebook.Tier)
	assert.Equal(t, CategorySocial, facebook.Category)

	badalona := result.Directories[2]
	assert.Equal(t, CategoryRegional, badalona.Category)
	assert.Equal(t, TierStandard, badalona.Tier)
	assert.Equal(t, defaultPopularity, badalona.Popularity)
	assert.Equal(t, "nacional", badalona.Reach)
	assert.True(t, badalona.Free)

	maptons := result.Directories[3]
	assert.False(t, maptons.Free)
	assert.Equal(t, "maptons-clone.com", maptons.Name)
	assert.Equal(t, defaultDescription, maptons.Description)

	assert.Equal(t, 1, result.ByTier[TierPremium])
	assert.Equal(t, 2, result.ByTier[TierStandard])
}

func TestBuilderEnrichesUncuratedEntries(t *testing.T) {
	fetcher := &fakeFetcher{meta: map[string]*scraper.Metadata{
		"https://maptons-clone.com": {SiteName: "Maptons", Description: "Directorio de negocios basado en mapas."},
	}}

	b := NewBuilder(WithMetadataFetcher(fetcher, 2))
	result, err := b.Build(context.Background(), readRawSources(t))
	require.NoError(t, err)

	got := make(map[string]Directory)
	for _, d := range result.Directories {
		got[d.Slug] = d
	}
	assert.Equal(t, "Maptons", got["maptons-clone-com"].Name)
	assert.Equal(t, "Directorio de negocios basado en mapas.", got["maptons-clone-com"].Description)

	// badalona already had a name and description
	assert.NotContains(t, fetcher.calls, "https://guiadebadalona.es")
	assert.Equal(t, 1, result.Enriched)
	assert.Equal(t, len(fetcher.calls)-1, result.EnrichFailed)
}

func TestSortDirectories(t *testing.T) {
	dirs := []Directory{
		{Slug: "a", Tier: TierStandard, Popularity: 60},
		{Slug: "b", Tier: TierPremium, Popularity: 70},
		{Slug: "c", Tier: TierSocial, Popularity: 99},
		{Slug: "d", Tier: TierBasic, Popularity: 60},
		{Slug: "e", Tier: TierPremium, Popularity: 95},
	}

	SortDirectories(dirs)

	var slugs []string
	for _, d := range dirs {
		slugs = append(slugs, d.Slug)
	}
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, slugs)
}

func TestMarshalDocumentRoundTrip(t *testing.T) {
	base, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	data, err := MarshalDocument(base, base.Directories())
	require.NoError(t, err)

	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, base.Len(), c.Len())
	assert.True(t, c.IsCritical("alpha-es"))
	assert.True(t, c.IsServiceDirectory("beta-com"))
	assert.Equal(t, base.RelevantCategories("cerrajeros"), c.RelevantCategories("cerrajeros"))

	// critical directory missing from the new table
	_, err = MarshalDocument(base, []Directory{{
		Slug: "beta-com", Name: "Beta", Domain: "beta.com",
		Tier: TierStandard, Category: CategoryServices, Popularity: 40,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directory")
}

func TestBuilderKeepsCuratedDirectoriesMissingFromSources(t *testing.T) {
	base, err := Default()
	require.NoError(t, err)

	sources, err := ReadSources(strings.NewReader(`[
  {"domain": "paginasamarillas.es", "times_found": 12},
  {"domain": "www.cylex.es", "times_found": 4}
]`))
	require.NoError(t, err)

	result, err := NewBuilder(WithOverrides(base.Directories())).Build(context.Background(), sources)
	require.NoError(t, err)
	assert.Equal(t, base.Len(), len(result.Directories))
	assert.Equal(t, base.Len()-2, result.CuratedAdded)

	data, err := MarshalDocument(base, result.Directories)
	require.NoError(t, err)

	c, err := Parse(data)
	require.NoError(t, err)
	europages, ok := c.Directory("europages-es")
	require.True(t, ok)
	assert.True(t, c.IsCritical("europages-es"))
	assert.Equal(t, CategoryB2B, europages.Category)
	assert.Equal(t, TierPremium, europages.Tier)
}
