package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCatalog = `
categorias:
  - {slug: cerrajeros, nombre: Cerrajeros, directorios: [servicios, general]}
ciudades:
  - {slug: barcelona, nombre: Barcelona, regiones: [regional]}
  - {slug: madrid, nombre: Madrid, regiones: []}
criticos: [alpha-es]
especializados:
  servicios: [beta-com]
directorios:
  - {slug: alpha-es, nombre: Alpha, dominio: alpha.es, tipo: premium, categoria: general, gratis: true, popularidad: 90}
  - {slug: beta-com, nombre: Beta, dominio: beta.com, tipo: estandar, categoria: servicios, popularidad: 40}
`

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Greater(t, c.Len(), 30)
	assert.Equal(t, []string{
		"cylex-es", "europages-es", "google-business-profile",
		"paginasamarillas-es", "qdq-com", "yelp-es",
	}, c.CriticalSlugs())

	gbp, ok := c.Directory("google-business-profile")
	require.True(t, ok)
	assert.Equal(t, TierPremium, gbp.Tier)
	assert.Equal(t, 100, gbp.Popularity)

	assert.True(t, c.IsReviewPlatform("tripadvisor-es"))
	assert.True(t, c.IsServiceDirectory("booksy-com"))
	assert.True(t, c.IsB2BDirectory("axesor-es"))
	assert.False(t, c.IsB2BDirectory("yelp-es"))
}

func TestDefaultCatalogIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRelevantCategories(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"servicios", "general", "resenas"}, c.RelevantCategories("cerrajeros"))
	assert.Equal(t, []string{"general"}, c.RelevantCategories("xyz-unknown"))

	// callers cannot mutate the table
	cats := c.RelevantCategories("cerrajeros")
	cats[0] = "b2b"
	assert.Equal(t, "servicios", c.RelevantCategories("cerrajeros")[0])
}

func TestIsRegional(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.True(t, c.IsRegional("barcelona"))
	assert.True(t, c.IsRegional("vigo"))
	assert.False(t, c.IsRegional("madrid"))
	assert.False(t, c.IsRegional("atlantis"))
	assert.True(t, c.HasCity("madrid"))
	assert.False(t, c.HasCity("atlantis"))
}

func TestFilter(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	assert.Len(t, c.Filter("", ""), 2)
	assert.Len(t, c.Filter(CategoryGeneral, ""), 1)
	assert.Len(t, c.Filter("", TierStandard), 1)
	assert.Empty(t, c.Filter(CategoryB2B, ""))
}

func TestDirectoriesReturnsCopy(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)

	dirs := c.Directories()
	dirs[0].Popularity = 0

	d, _ := c.Directory("alpha-es")
	assert.Equal(t, 90, d.Popularity)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown tier",
			yaml: `directorios: [{slug: a, nombre: A, dominio: a.es, tipo: gold, categoria: general, popularidad: 10}]`,
			want: "invalid catalog",
		},
		{
			name: "popularity out of range",
			yaml: `directorios: [{slug: a, nombre: A, dominio: a.es, tipo: premium, categoria: general, popularidad: 150}]`,
			want: "invalid catalog",
		},
		{
			name: "duplicate slug",
			yaml: `directorios:
  - {slug: a, nombre: A, dominio: a.es, tipo: premium, categoria: general, popularidad: 10}
  - {slug: a, nombre: A2, dominio: a2.es, tipo: premium, categoria: general, popularidad: 10}`,
			want: "duplicate directory slug",
		},
		{
			name: "critical references unknown directory",
			yaml: `criticos: [missing]
directorios: [{slug: a, nombre: A, dominio: a.es, tipo: premium, categoria: general, popularidad: 10}]`,
			want: "unknown directory",
		},
		{
			name: "empty",
			yaml: `categorias: []`,
			want: "invalid catalog",
		},
		{
			name: "malformed",
			yaml: `directorios: [`,
			want: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.IsCritical("alpha-es"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
