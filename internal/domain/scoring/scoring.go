// Package scoring blends academic and interest scores per stream and picks
// the primary and alternative recommendation.
package scoring

import (
	"sort"

	"github.com/okian/streamwise/internal/domain/model"
)

// Scoring constants. Weights sum to 1 so blended scores stay within 0-100.
const (
	AcademicWeight    = 0.6
	InterestWeight    = 0.4
	Within5Threshold  = 5.0
	Within10Threshold = 10.0
)

// Ranked is one stream with its blended score.
type Ranked struct {
	Category model.Category `json:"category"`
	Score    float64        `json:"score"`
}

// Blend combines academic averages and normalized interest for every stream:
// AcademicWeight*academic + InterestWeight*interest.
func Blend(academic, interest map[model.Category]float64) map[model.Category]float64 {
	out := make(map[model.Category]float64, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = AcademicWeight*academic[c] + InterestWeight*interest[c]
	}
	return out
}

// Rank orders every declared stream by score, highest first. Exact ties keep
// declaration order.
func Rank(scores map[model.Category]float64) []Ranked {
	ranked := make([]Ranked, 0, len(model.Categories))
	for _, c := range model.Categories {
		ranked = append(ranked, Ranked{Category: c, Score: scores[c]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Alternative decides whether the runner-up is surfaced. The gap is taken as
// a percentage of the primary score; no alternative is produced when the
// primary score is not positive.
func Alternative(primary, second Ranked) (model.Category, model.AlternativeReason, bool) {
	if primary.Score <= 0 {
		return "", "", false
	}
	diff := PercentDiff(primary.Score, second.Score)
	switch {
	case diff <= Within5Threshold:
		return second.Category, model.ReasonWithin5, true
	case diff <= Within10Threshold:
		return second.Category, model.ReasonWithin10, true
	default:
		return "", "", false
	}
}

// PercentDiff returns (primary-second)/primary*100. The caller guarantees a
// positive primary.
func PercentDiff(primary, second float64) float64 {
	return (primary - second) / primary * 100
}

// Decide ranks the blended scores and selects primary and alternative.
func Decide(scores map[model.Category]float64) (primary model.Category, alternative *model.Category, reason model.AlternativeReason) {
	ranked := Rank(scores)
	primary = ranked[0].Category
	if len(ranked) < 2 {
		return primary, nil, ""
	}
	if c, r, ok := Alternative(ranked[0], ranked[1]); ok {
		alt := c
		return primary, &alt, r
	}
	return primary, nil, ""
}
