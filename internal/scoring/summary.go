package scoring

// Summary partitions a recommendation list for dashboard display
type Summary struct {
	Total       int              `json:"total"`
	Critical    []Recommendation `json:"criticas"`
	High        []Recommendation `json:"altas"`
	Medium      []Recommendation `json:"medias"`
	Low         []Recommendation `json:"bajas"`
	Free        []Recommendation `json:"gratuitas"`
	WithReviews []Recommendation `json:"con_resenas"`
}

// Summarize scores and partitions the recommendations for a business
func (e *Engine) Summarize(businessCategory, city string) Summary {
	return Summarize(e.Recommend(businessCategory, city))
}

// Summarize partitions an already computed recommendation list.
// Each partition keeps the order of recs.
func Summarize(recs []Recommendation) Summary {
	s := Summary{
		Total:       len(recs),
		Critical:    []Recommendation{},
		High:        []Recommendation{},
		Medium:      []Recommendation{},
		Low:         []Recommendation{},
		Free:        []Recommendation{},
		WithReviews: []Recommendation{},
	}

	for _, r := range recs {
		switch r.Priority {
		case PriorityCritical:
			s.Critical = append(s.Critical, r)
		case PriorityHigh:
			s.High = append(s.High, r)
		case PriorityMedium:
			s.Medium = append(s.Medium, r)
		default:
			s.Low = append(s.Low, r)
		}
		if r.Directory.Free {
			s.Free = append(s.Free, r)
		}
		if r.Directory.AllowsReviews {
			s.WithReviews = append(s.WithReviews, r)
		}
	}

	return s
}
