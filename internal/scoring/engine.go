package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
)

// Priority is the urgency bucket derived from a recommendation score
type Priority string

const (
	PriorityCritical Priority = "critica"
	PriorityHigh     Priority = "alta"
	PriorityMedium   Priority = "media"
	PriorityLow      Priority = "baja"
)

// Reason strings shown next to each recommendation
const (
	ReasonRelevantFor    = "Relevante para %s"
	ReasonPopular        = "Directorio muy popular"
	ReasonReference      = "Directorio de referencia"
	ReasonCritical       = "Imprescindible para SEO local"
	ReasonRegional       = "Directorio regional para tu zona"
	ReasonAllowsReviews  = "Permite resenas de clientes"
	ReasonFree           = "Registro gratuito"
	ReasonServices       = "Especializado en servicios"
	ReasonB2B            = "Directorio empresarial B2B"
	ReasonReviewPlatform = "Plataforma de resenas importante"
)

// Weights holds the point values and thresholds of the scorer
type Weights struct {
	RelevanceMax   int     `json:"relevance_max"`
	RelevanceStep  int     `json:"relevance_step"`
	RelevanceFloor int     `json:"relevance_floor"`
	PopularityRate float64 `json:"popularity_rate"`
	PopularAt      int     `json:"popular_at"`

	PremiumBonus        int `json:"premium_bonus"`
	StandardBonus       int `json:"standard_bonus"`
	CriticalBonus       int `json:"critical_bonus"`
	RegionalBonus       int `json:"regional_bonus"`
	ReviewsBonus        int `json:"reviews_bonus"`
	FreeBonus           int `json:"free_bonus"`
	ServicesBonus       int `json:"services_bonus"`
	B2BBonus            int `json:"b2b_bonus"`
	ReviewPlatformBonus int `json:"review_platform_bonus"`

	MaxScore   int `json:"max_score"`
	MinScore   int `json:"min_score"`
	CriticalAt int `json:"critical_at"`
	HighAt     int `json:"high_at"`
	MediumAt   int `json:"medium_at"`
	MaxReasons int `json:"max_reasons"`
}

// DefaultWeights returns the tuned production weights
func DefaultWeights() Weights {
	return Weights{
		RelevanceMax:   35,
		RelevanceStep:  10,
		RelevanceFloor: 10,
		PopularityRate: 0.25,
		PopularAt:      80,

		PremiumBonus:        15,
		StandardBonus:       5,
		CriticalBonus:       15,
		RegionalBonus:       10,
		ReviewsBonus:        5,
		FreeBonus:           5,
		ServicesBonus:       10,
		B2BBonus:            10,
		ReviewPlatformBonus: 8,

		MaxScore:   100,
		MinScore:   15,
		CriticalAt: 75,
		HighAt:     55,
		MediumAt:   35,
		MaxReasons: 3,
	}
}

// Recommendation is a directory a business should register with
type Recommendation struct {
	Directory catalog.Directory `json:"directorio"`
	Score     int               `json:"score"`
	Reasons   []string          `json:"razones"`
	Priority  Priority          `json:"prioridad"`
}

// Engine scores directories for a business category and city.
// It only reads the catalog, so one Engine can serve concurrent requests.
type Engine struct {
	catalog *catalog.Catalog
	weights Weights
}

// Option configures an Engine
type Option func(*Engine)

// WithWeights overrides the default weights
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// NewEngine creates a new scoring engine over a catalog
func NewEngine(c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: c,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the reference tables the engine scores against
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Weights returns the weights in use
func (e *Engine) Weights() Weights {
	return e.weights
}

// Recommend returns the directories worth registering with, best first.
// Unknown categories fall back to general relevance and unknown cities get
// no regional bonus.
func (e *Engine) Recommend(businessCategory, city string) []Recommendation {
	relevant := e.catalog.RelevantCategories(businessCategory)
	regional := e.catalog.IsRegional(city)

	wantsServices := contains(relevant, catalog.CategoryServices)
	wantsB2B := contains(relevant, catalog.CategoryB2B)
	wantsReviews := contains(relevant, catalog.CategoryReviews)

	w := e.weights
	recs := make([]Recommendation, 0)

	for _, dir := range e.catalog.Directories() {
		score := 0
		reasons := []string{}

		if idx := indexOf(relevant, dir.Category); idx >= 0 {
			score += max(w.RelevanceMax-idx*w.RelevanceStep, w.RelevanceFloor)
			reasons = append(reasons, fmt.Sprintf(ReasonRelevantFor, businessCategory))
		}

		score += int(math.Round(float64(dir.Popularity) * w.PopularityRate))
		if dir.Popularity >= w.PopularAt {
			reasons = append(reasons, ReasonPopular)
		}

		switch dir.Tier {
		case catalog.TierPremium:
			score += w.PremiumBonus
			reasons = append(reasons, ReasonReference)
		case catalog.TierStandard:
			score += w.StandardBonus
		}

		if e.catalog.IsCritical(dir.Slug) {
			score += w.CriticalBonus
			reasons = append(reasons, ReasonCritical)
		}

		if regional && dir.Category == catalog.CategoryRegional {
			score += w.RegionalBonus
			reasons = append(reasons, ReasonRegional)
		}

		if dir.AllowsReviews && wantsReviews {
			score += w.ReviewsBonus
			reasons = append(reasons, ReasonAllowsReviews)
		}

		if dir.Free {
			score += w.FreeBonus
			reasons = append(reasons, ReasonFree)
		}

		if wantsServices && e.catalog.IsServiceDirectory(dir.Slug) {
			score += w.ServicesBonus
			reasons = append(reasons, ReasonServices)
		}

		if wantsB2B && e.catalog.IsB2BDirectory(dir.Slug) {
			score += w.B2BBonus
			reasons = append(reasons, ReasonB2B)
		}

		if wantsReviews && e.catalog.IsReviewPlatform(dir.Slug) {
			score += w.ReviewPlatformBonus
			reasons = append(reasons, ReasonReviewPlatform)
		}

		score = clamp(score, 0, w.MaxScore)
		if score < w.MinScore {
			continue
		}

		if len(reasons) > w.MaxReasons {
			reasons = reasons[:w.MaxReasons]
		}

		recs = append(recs, Recommendation{
			Directory: dir,
			Score:     score,
			Reasons:   reasons,
			Priority:  e.priorityFor(score),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	return recs
}

// priorityFor buckets a score into a priority
func (e *Engine) priorityFor(score int) Priority {
	switch {
	case score >= e.weights.CriticalAt:
		return PriorityCritical
	case score >= e.weights.HighAt:
		return PriorityHigh
	case score >= e.weights.MediumAt:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
