// Package catalog loads the read-only course catalog.
package catalog

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/streamwise/internal/domain/courses"
)

// Sentinel errors for catalog loading.
var (
	ErrLoadCatalog    = errors.New("load catalog failed")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Load returns the built-in catalog when path is empty, otherwise the
// courses listed under the "courses" key of the YAML file at path.
func Load(path string) ([]courses.Course, error) {
	if path == "" {
		return Builtin(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}

	var list []courses.Course
	if err := k.UnmarshalWithConf("courses", &list, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	if err := Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Validate requires a non-empty catalog with unique ids and a name and
// category on every course.
func Validate(list []courses.Course) error {
	if len(list) == 0 {
		return fmt.Errorf("%w: no courses", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(list))
	for i, c := range list {
		if c.ID == "" || c.Name == "" || c.Category == "" {
			return fmt.Errorf("%w: course %d needs id, name and category", ErrInvalidCatalog, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate course id %q", ErrInvalidCatalog, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// Builtin returns a fresh copy of the default catalog.
func Builtin() []courses.Course {
	return []courses.Course{
		{
			ID:                  "ba",
			Name:                "Bachelor of Arts",
			ShortName:           "B.A.",
			Description:         "A comprehensive undergraduate program in humanities and liberal arts",
			Category:            "arts",
			Duration:            "3 years",
			Subjects:            []string{"English", "History", "Political Science", "Psychology", "Sociology", "Philosophy"},
			CareerOpportunities: []string{"Civil Services", "Teaching", "Journalism", "Content Writing", "Social Work", "Research"},
			IsActive:            true,
		},
		{
			ID:                  "bsc",
			Name:                "Bachelor of Science",
			ShortName:           "B.Sc.",
			Description:         "Scientific education with specialization in various science subjects",
			Category:            "science",
			Duration:            "3 years",
			Subjects:            []string{"Physics", "Chemistry", "Mathematics", "Biology", "Computer Science", "Statistics"},
			CareerOpportunities: []string{"Research Scientist", "Lab Technician", "Data Analyst", "Software Developer", "Teacher"},
			IsActive:            true,
		},
		{
			ID:                  "bcom",
			Name:                "Bachelor of Commerce",
			ShortName:           "B.Com",
			Description:         "Business and commerce education with accounting and finance focus",
			Category:            "commerce",
			Duration:            "3 years",
			Subjects:            []string{"Accounting", "Business Studies", "Economics", "Statistics", "Taxation", "Banking"},
			CareerOpportunities: []string{"Chartered Accountant", "Banking", "Finance Manager", "Tax Consultant", "Auditor"},
			IsActive:            true,
		},
		{
			ID:                  "bba",
			Name:                "Bachelor of Business Administration",
			ShortName:           "BBA",
			Description:         "Management and business administration undergraduate program",
			Category:            "management",
			Duration:            "3 years",
			Subjects:            []string{"Management", "Marketing", "Finance", "Human Resources", "Operations", "Strategy"},
			CareerOpportunities: []string{"Business Analyst", "Marketing Manager", "HR Executive", "Operations Manager", "Entrepreneur"},
			IsActive:            true,
		},
		{
			ID:                  "bca",
			Name:                "Bachelor of Computer Applications",
			ShortName:           "BCA",
			Description:         "Computer applications and software development program",
			Category:            "science",
			Duration:            "3 years",
			Subjects:            []string{"Programming", "Database", "Web Development", "Software Engineering", "Networking", "Data Structures"},
			CareerOpportunities: []string{"Software Developer", "Web Developer", "System Analyst", "Database Administrator", "IT Consultant"},
			IsActive:            true,
		},
		{
			ID:                  "bed",
			Name:                "Bachelor of Education",
			ShortName:           "B.Ed",
			Description:         "Teacher training and education methodology program",
			Category:            "arts",
			Duration:            "2 years",
			Subjects:            []string{"Educational Psychology", "Teaching Methods", "Curriculum Development", "Assessment", "Child Development"},
			CareerOpportunities: []string{"School Teacher", "Educational Consultant", "Curriculum Designer", "Education Officer"},
			IsActive:            true,
		},
	}
}
