package courses_test

import (
	"testing"

	"github.com/okian/streamwise/internal/domain/courses"
	"github.com/okian/streamwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func catalog() []courses.Course {
	return []courses.Course{
		{ID: "ba", Name: "Bachelor of Arts", Category: "arts", Subjects: []string{"History", "Psychology"}, CareerOpportunities: []string{"Journalism"}, IsActive: true},
		{ID: "bsc", Name: "Bachelor of Science", Category: "science", Subjects: []string{"Physics", "Computer Science"}, CareerOpportunities: []string{"Data Analyst"}, IsActive: true},
		{ID: "bba", Name: "Bachelor of Business Administration", Category: "management", Subjects: []string{"Marketing"}, CareerOpportunities: []string{"Entrepreneur"}, IsActive: true},
		{ID: "old", Name: "Retired Course", Category: "science", Subjects: []string{"Physics"}, IsActive: false},
	}
}

func TestScore(t *testing.T) {
	Convey("Given a user without optional profile fields", t, func() {
		user := model.User{ID: "u1", Role: model.RoleStudent}

		Convey("Then a plain course scores the base", func() {
			m := courses.Score(user, catalog()[0])
			So(m.Score, ShouldEqual, courses.BaseScore)
			So(m.Reasons, ShouldBeEmpty)
		})

		Convey("And a high-demand course gets its bonus", func() {
			m := courses.Score(user, catalog()[2])
			So(m.Score, ShouldEqual, 55)
			So(m.Reasons, ShouldContain, "High demand field")
		})
	})

	Convey("Given a Class 12 student with interests", t, func() {
		level := model.EducationClass12
		user := model.User{ID: "u2", EducationLevel: &level, Interests: []string{"physics", "data", "  ", "cooking"}}

		m := courses.Score(user, catalog()[1])

		Convey("Then interest matches are case-insensitive substrings across subjects and careers", func() {
			So(m.Score, ShouldEqual, 50+2*15+10)
			So(m.Reasons, ShouldContain, "Matches your interests: physics, data")
			So(m.Reasons, ShouldContain, "Suitable for Class 12 students")
		})
	})

	Convey("Given many matching interests", t, func() {
		user := model.User{Interests: []string{"a", "e", "i", "n", "t", "r"}}
		m := courses.Score(user, catalog()[2])

		Convey("Then the score is capped", func() {
			So(m.Score, ShouldEqual, courses.MaxScore)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a catalog with an inactive course", t, func() {
		user := model.User{Interests: []string{"history"}}
		ranked := courses.Rank(user, catalog(), 0)

		Convey("Then only active courses are ranked, best first", func() {
			So(len(ranked), ShouldEqual, 3)
			So(ranked[0].Course.ID, ShouldEqual, "ba")
			So(ranked[1].Course.ID, ShouldEqual, "bba")
			So(ranked[2].Course.ID, ShouldEqual, "bsc")
		})

		Convey("And the limit truncates", func() {
			So(len(courses.Rank(user, catalog(), 1)), ShouldEqual, 1)
		})
	})

	Convey("ForCategory keeps active courses of one category", t, func() {
		out := courses.ForCategory(catalog(), "science")
		So(len(out), ShouldEqual, 1)
		So(out[0].ID, ShouldEqual, "bsc")
	})
}
