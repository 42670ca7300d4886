// Package guidance holds the display text shown next to a recommended stream.
package guidance

import "github.com/okian/streamwise/internal/domain/model"

// Guidance is the headline and suggestions for one stream.
type Guidance struct {
	Category model.Category `json:"category"`
	Headline string         `json:"headline"`
	Courses  []string       `json:"courses"`
	Careers  []string       `json:"careers"`
}

var table = map[model.Category]Guidance{ //nolint:gochecknoglobals // fixed table
	model.Science: {
		Headline: "Your strength is in Science",
		Courses:  []string{"B.Sc.", "B.Tech", "MBBS", "BCA"},
		Careers:  []string{"Engineer", "Scientist", "Doctor", "Data Analyst"},
	},
	model.Commerce: {
		Headline: "Your strength is in Commerce",
		Courses:  []string{"B.Com", "BBA", "CA", "CFA", "MBA"},
		Careers:  []string{"Entrepreneur", "Accountant", "Banker", "Financial Analyst"},
	},
	model.Arts: {
		Headline: "Your strength is in Arts",
		Courses:  []string{"B.A.", "BFA", "BJMC", "B.Ed"},
		Careers:  []string{"Teacher", "Journalist", "Writer", "Artist", "Civil Services"},
	},
	model.Vocational: {
		Headline: "Your strength is in Vocational/Skilled",
		Courses:  []string{"ITI", "Diploma", "Polytechnic", "B.Voc"},
		Careers:  []string{"Technician", "Skilled Worker", "Innovator", "ITI Professional"},
	},
}

// For returns the guidance for c. Unknown streams yield false.
func For(c model.Category) (Guidance, bool) {
	g, ok := table[c]
	if !ok {
		return Guidance{}, false
	}
	g.Category = c
	g.Courses = append([]string(nil), g.Courses...)
	g.Careers = append([]string(nil), g.Careers...)
	return g, true
}

// ForRecommendation returns guidance for the primary stream and, when set,
// the alternative.
func ForRecommendation(rec *model.Recommendation) []Guidance {
	if rec == nil {
		return nil
	}
	out := make([]Guidance, 0, 2)
	if g, ok := For(rec.Primary); ok {
		out = append(out, g)
	}
	if rec.Alternative != nil {
		if g, ok := For(*rec.Alternative); ok {
			out = append(out, g)
		}
	}
	return out
}
