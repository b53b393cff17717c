// Package sitemap renders the public page tree as a sitemaps.org urlset.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one sitemap entry
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// URLSet is the sitemap document
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Input is the page tree to publish
type Input struct {
	BaseURL    string
	LastMod    time.Time
	Categories []catalog.BusinessCategory
	Cities     []catalog.City
	// Barrios are the neighbourhoods known per city; each one gets a page
	// under every category
	Barrios    []models.BarrioRef
	Businesses []models.Business
	// BlogSlugs are the generated ranking posts
	BlogSlugs []string
}

// Build lists home, static pages, categories, category/city pages,
// category/city/barrio pages and business pages, in that nesting order,
// then the blog index and its posts
func Build(in Input) *URLSet {
	base := strings.TrimRight(in.BaseURL, "/")
	lastmod := in.LastMod.UTC().Format("2006-01-02")

	set := &URLSet{Xmlns: xmlns}
	add := func(path, priority, changefreq string) {
		set.URLs = append(set.URLs, URL{
			Loc:        base + path,
			LastMod:    lastmod,
			ChangeFreq: changefreq,
			Priority:   priority,
		})
	}

	barriosByCity := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, ref := range in.Barrios {
		key := ref.CitySlug + "/" + ref.BarrioSlug
		if _, ok := seen[key]; ok || ref.BarrioSlug == "" {
			continue
		}
		seen[key] = struct{}{}
		barriosByCity[ref.CitySlug] = append(barriosByCity[ref.CitySlug], ref.BarrioSlug)
	}
	for city := range barriosByCity {
		sort.Strings(barriosByCity[city])
	}

	businessesAt := make(map[string][]string)
	for _, b := range in.Businesses {
		key := b.CategorySlug + "/" + b.CitySlug + "/" + b.BarrioSlug
		businessesAt[key] = append(businessesAt[key], b.Slug)
	}

	add("/", "1.0", "weekly")
	add("/directorios", "0.8", "monthly")
	add("/contacto", "0.5", "monthly")
	if len(in.BlogSlugs) > 0 {
		add("/blog", "0.7", "weekly")
	}

	for _, cat := range in.Categories {
		add("/"+cat.Slug, "0.9", "weekly")

		for _, city := range in.Cities {
			add(fmt.Sprintf("/%s/%s", cat.Slug, city.Slug), "0.8", "weekly")

			for _, barrio := range barriosByCity[city.Slug] {
				prefix := fmt.Sprintf("/%s/%s/%s", cat.Slug, city.Slug, barrio)
				add(prefix, "0.7", "weekly")

				for _, slug := range businessesAt[cat.Slug+"/"+city.Slug+"/"+barrio] {
					add(prefix+"/"+slug, "0.6", "monthly")
				}
			}
		}
	}

	for _, slug := range in.BlogSlugs {
		add("/blog/"+slug, "0.6", "weekly")
	}

	return set
}

// Encode writes the sitemap as indented XML with the standard declaration
func (s *URLSet) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
