package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is what a directory homepage says about itself
type Metadata struct {
	Title       string `json:"title"`
	SiteName    string `json:"site_name"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
	Language    string `json:"language"`
}

// Name returns the best display name available on the page
func (m *Metadata) Name() string {
	if m.SiteName != "" {
		return m.SiteName
	}
	return siteNameFromTitle(m.Title)
}

// ParseMetadata extracts listing metadata from a homepage
func ParseMetadata(doc *goquery.Document) *Metadata {
	m := &Metadata{
		Title:     cleanText(doc.Find("title").First().Text()),
		Canonical: attr(doc, "link[rel='canonical']", "href"),
	}

	m.SiteName = firstAttr(doc, "content",
		"meta[property='og:site_name']",
		"meta[name='application-name']",
	)

	m.Description = firstAttr(doc, "content",
		"meta[name='description']",
		"meta[property='og:description']",
		"meta[name='twitter:description']",
	)

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		m.Language = strings.ToLower(strings.TrimSpace(lang))
	}

	return m
}

// siteNameFromTitle keeps the brand part of titles like
// "Cylex | Directorio de empresas" or "Inicio - Cylex"
func siteNameFromTitle(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " · "} {
		parts := strings.Split(title, sep)
		if len(parts) < 2 {
			continue
		}
		first := strings.TrimSpace(parts[0])
		last := strings.TrimSpace(parts[len(parts)-1])
		if isGenericTitle(first) || len(last) < len(first) {
			return last
		}
		return first
	}
	return strings.TrimSpace(title)
}

func isGenericTitle(s string) bool {
	switch strings.ToLower(s) {
	case "inicio", "home", "portada", "bienvenido", "bienvenidos":
		return true
	}
	return false
}

func firstAttr(doc *goquery.Document, name string, selectors ...string) string {
	for _, selector := range selectors {
		if v := attr(doc, selector, name); v != "" {
			return v
		}
	}
	return ""
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return cleanText(v)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
