// Package courses ranks catalog courses against a student's profile.
package courses

import (
	"sort"
	"strings"

	"github.com/okian/streamwise/internal/domain/model"
)

// Matching constants.
const (
	BaseScore          = 50
	InterestBonus      = 15
	ClassTwelveBonus   = 10
	HighDemandBonus    = 5
	MaxScore           = 100
	DefaultMatchLimit  = 10
	reasonHighDemand   = "High demand field"
	reasonClassTwelve  = "Suitable for Class 12 students"
	reasonInterestsFmt = "Matches your interests: "
)

// Course is a read-only catalog entry.
type Course struct {
	ID                  string   `json:"id" koanf:"id"`
	Name                string   `json:"name" koanf:"name"`
	ShortName           string   `json:"shortName" koanf:"short_name"`
	Description         string   `json:"description,omitempty" koanf:"description"`
	Category            string   `json:"category" koanf:"category"`
	Duration            string   `json:"duration,omitempty" koanf:"duration"`
	Subjects            []string `json:"subjects" koanf:"subjects"`
	CareerOpportunities []string `json:"careerOpportunities" koanf:"career_opportunities"`
	IsActive            bool     `json:"isActive" koanf:"is_active"`
}

// Match is a scored course with the reasons that contributed.
type Match struct {
	Course  Course   `json:"course"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

var (
	classTwelveCategories = map[string]struct{}{"science": {}, "commerce": {}, "arts": {}}          //nolint:gochecknoglobals // fixed table
	highDemandCategories  = map[string]struct{}{"engineering": {}, "medical": {}, "management": {}} //nolint:gochecknoglobals // fixed table
)

// Score rates one course for a user. Absent interests or education level
// contribute nothing.
func Score(user model.User, c Course) Match {
	score := BaseScore
	var reasons []string

	if matched := matchingInterests(user.Interests, c); len(matched) > 0 {
		score += len(matched) * InterestBonus
		reasons = append(reasons, reasonInterestsFmt+strings.Join(matched, ", "))
	}
	if user.EducationLevel != nil && *user.EducationLevel == model.EducationClass12 {
		if _, ok := classTwelveCategories[c.Category]; ok {
			score += ClassTwelveBonus
			reasons = append(reasons, reasonClassTwelve)
		}
	}
	if _, ok := highDemandCategories[c.Category]; ok {
		score += HighDemandBonus
		reasons = append(reasons, reasonHighDemand)
	}
	if score > MaxScore {
		score = MaxScore
	}
	if reasons == nil {
		reasons = []string{}
	}
	return Match{Course: c, Score: score, Reasons: reasons}
}

func matchingInterests(interests []string, c Course) []string {
	var out []string
	for _, interest := range interests {
		needle := strings.ToLower(strings.TrimSpace(interest))
		if needle == "" {
			continue
		}
		if containsFold(c.Subjects, needle) || containsFold(c.CareerOpportunities, needle) {
			out = append(out, interest)
		}
	}
	return out
}

func containsFold(haystack []string, lowerNeedle string) bool {
	for _, s := range haystack {
		if strings.Contains(strings.ToLower(s), lowerNeedle) {
			return true
		}
	}
	return false
}

// Rank scores every active course and returns the best limit matches,
// highest first. Equal scores keep catalog order.
func Rank(user model.User, catalog []Course, limit int) []Match {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	matches := make([]Match, 0, len(catalog))
	for _, c := range catalog {
		if !c.IsActive {
			continue
		}
		matches = append(matches, Score(user, c))
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ForCategory filters active courses by category, keeping catalog order.
func ForCategory(catalog []Course, category string) []Course {
	out := make([]Course, 0)
	for _, c := range catalog {
		if c.IsActive && c.Category == category {
			out = append(out, c)
		}
	}
	return out
}
