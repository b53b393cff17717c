// Package blog builds the "top N" ranking posts published for every
// category and city with enough rated businesses.
package blog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
)

const (
	// MaxRanked is the size cap of a ranking
	MaxRanked = 10
	// MinRanked is the fewest businesses a ranking is published with
	MinRanked = 3
)

// Post is one generated ranking
type Post struct {
	Slug         string            `json:"slug"`
	Title        string            `json:"titulo"`
	Excerpt      string            `json:"extracto"`
	CategorySlug string            `json:"categoria_slug"`
	CitySlug     string            `json:"ciudad_slug"`
	CategoryName string            `json:"categoria_nombre"`
	CityName     string            `json:"ciudad_nombre"`
	Generated    string            `json:"fecha_generado"`
	Businesses   []models.Business `json:"negocios"`
}

// Generate ranks the businesses of every category and city pair by rating,
// then review count, and keeps pairs with at least MinRanked businesses.
// Posts are ordered by ranking size, largest first; equal sizes keep
// category then city order.
func Generate(categories []catalog.BusinessCategory, cities []catalog.City, businesses []models.Business, now time.Time) []Post {
	byPair := make(map[string][]models.Business)
	for _, b := range businesses {
		key := b.CategorySlug + "/" + b.CitySlug
		byPair[key] = append(byPair[key], b)
	}

	generated := now.UTC().Format("2006-01-02")
	var posts []Post

	for _, cat := range categories {
		for _, city := range cities {
			ranked := Rank(byPair[cat.Slug+"/"+city.Slug])
			if len(ranked) < MinRanked {
				continue
			}

			n := len(ranked)
			posts = append(posts, Post{
				Slug:         PostSlug(n, cat.Name, city.Slug),
				Title:        fmt.Sprintf("Top %d %s en %s", n, cat.Name, city.Name),
				Excerpt:      fmt.Sprintf("Ranking de los %d mejores %s en %s según valoraciones y reseñas reales de Google Maps.", n, strings.ToLower(cat.Name), city.Name),
				CategorySlug: cat.Slug,
				CitySlug:     city.Slug,
				CategoryName: cat.Name,
				CityName:     city.Name,
				Generated:    generated,
				Businesses:   ranked,
			})
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return len(posts[i].Businesses) > len(posts[j].Businesses)
	})
	return posts
}

// Rank returns up to MaxRanked businesses ordered by rating then review
// count, both descending. Unrated businesses count as 0; ties keep input order.
func Rank(businesses []models.Business) []models.Business {
	ranked := make([]models.Business, len(businesses))
	copy(ranked, businesses)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := rating(ranked[i]), rating(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return ranked[i].ReviewCount > ranked[j].ReviewCount
	})

	if len(ranked) > MaxRanked {
		ranked = ranked[:MaxRanked]
	}
	return ranked
}

// PostSlug is top-<n>-<category name>-en-<city slug>
func PostSlug(n int, categoryName, citySlug string) string {
	return fmt.Sprintf("top-%d-%s-en-%s", n, models.Slugify(categoryName), citySlug)
}

// Find returns the post with the given slug
func Find(posts []Post, slug string) (Post, bool) {
	for _, p := range posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return Post{}, false
}

func rating(b models.Business) float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}
