package service_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	service "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/adapters/catalog"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithOutput(io.Discard))
	if err != nil {
		panic(err)
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(3), service.WithQueueSize(50))
		ctx := context.Background()

		Convey("When it is not started", func() {
			stats := svc.GetStats(ctx)
			So(stats["started"], ShouldEqual, false)
		})

		Convey("When started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats(ctx)

			Convey("Then stats describe the pipeline", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 3)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["snapshots"], ShouldEqual, 0)
			})

			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("Then the survey has fifteen questions", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			So(len(svc.SurveyQuestions()), ShouldEqual, 15)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then the survey table is already available", func() {
			So(len(svc.SurveyQuestions()), ShouldEqual, 15)
		})

		Convey("Then store-backed operations report not started", func() {
			_, err := svc.SubmitInterestSurvey(ctx, "s1", favouring(model.Science))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.SubmitMarks(ctx, "s1", "", model.Class10, scenarioMarks())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ComputeRecommendation(ctx, "s1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.LatestSnapshot(ctx, "s1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Dashboard(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_SubmitMarks(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		svc := startService(service.WithClock(func() time.Time { return at }))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When complete marks are submitted with out-of-range values", func() {
			streams := scenarioMarks()
			streams[model.Science]["physics"] = 140
			streams[model.Science]["chemistry"] = math.NaN()
			rec, err := svc.SubmitMarks(ctx, "s1", "", model.Class12, streams)

			Convey("Then they are clamped and averaged", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldNotBeEmpty)
				So(rec.UpdatedAt, ShouldEqual, at)
				So(rec.Streams[model.Science]["physics"], ShouldEqual, 100.0)
				So(rec.Streams[model.Science]["chemistry"], ShouldEqual, 0.0)
				So(rec.Averages[model.Science], ShouldAlmostEqual, (100+0+80+80+80)/5.0)
				So(rec.Averages[model.Commerce], ShouldEqual, 40.0)
			})

			Convey("And the student exists with the student role", func() {
				u, err := svc.GetUser(ctx, "s1")
				So(err, ShouldBeNil)
				So(u.Role, ShouldEqual, model.RoleStudent)
			})

			Convey("And resubmitting the same level replaces the record in place", func() {
				again, err := svc.SubmitMarks(ctx, "s1", "school-9", model.Class12, scenarioMarks())
				So(err, ShouldBeNil)
				So(again.ID, ShouldEqual, rec.ID)
				So(again.SchoolID, ShouldEqual, "school-9")

				got, err := svc.GetMarks(ctx, "s1", model.Class12)
				So(err, ShouldBeNil)
				So(got.Averages[model.Science], ShouldEqual, 80.0)
			})
		})

		Convey("When the class level is unknown", func() {
			_, err := svc.SubmitMarks(ctx, "s1", "", model.ClassLevel("Class11"), scenarioMarks())

			Convey("Then a validation error is returned and nothing is stored", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				_, err := svc.GetMarks(ctx, "s1", "")
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a required subject is missing", func() {
			streams := scenarioMarks()
			delete(streams[model.Arts], "history")
			_, err := svc.SubmitMarks(ctx, "s1", "", model.Class10, streams)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When marks are requested with a bad level", func() {
			_, err := svc.GetMarks(ctx, "s1", model.ClassLevel("nope"))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestService_SubmitInterestSurvey(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When fifteen valid answers are submitted", func() {
			profile, err := svc.SubmitInterestSurvey(ctx, "s1", favouring(model.Science))

			Convey("Then raw interest sums are stored", func() {
				So(err, ShouldBeNil)
				So(profile.TotalQuestions, ShouldEqual, 15)
				So(profile.InterestScores, ShouldResemble, map[model.Category]int{
					model.Science: 20, model.Commerce: 9, model.Arts: 5, model.Vocational: 4,
				})
			})

			Convey("And an invalid resubmission leaves the profile untouched", func() {
				_, err := svc.SubmitInterestSurvey(ctx, "s1", favouring(model.Arts)[:14])
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)

				got, err := svc.GetSurvey(ctx, "s1")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, profile.ID)
				So(got.InterestScores[model.Science], ShouldEqual, 20)
			})
		})

		Convey("When a Likert value is out of range", func() {
			answers := favouring(model.Science)
			answers[3].Value = 6
			_, err := svc.SubmitInterestSurvey(ctx, "s1", answers)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestService_ComputeRecommendation(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the student has nothing", func() {
			eval, err := svc.ComputeRecommendation(ctx, "ghost")

			Convey("Then a missing-data marker is returned without error", func() {
				So(err, ShouldBeNil)
				So(eval.Complete(), ShouldBeFalse)
				So(*eval.Missing, ShouldResemble, model.MissingData{Error: "Missing data", HasMarks: false, HasAssessment: false})
			})
		})

		Convey("When only marks exist", func() {
			_, err := svc.SubmitMarks(ctx, "s1", "", model.Class10, scenarioMarks())
			So(err, ShouldBeNil)
			eval, err := svc.ComputeRecommendation(ctx, "s1")
			So(err, ShouldBeNil)
			So(eval.Missing.HasMarks, ShouldBeTrue)
			So(eval.Missing.HasAssessment, ShouldBeFalse)
		})

		Convey("When marks and survey exist", func() {
			_, err := svc.SubmitMarks(ctx, "s1", "", model.Class10, scenarioMarks())
			So(err, ShouldBeNil)
			_, err = svc.SubmitInterestSurvey(ctx, "s1", favouring(model.Science))
			So(err, ShouldBeNil)

			eval, err := svc.ComputeRecommendation(ctx, "s1")

			Convey("Then science wins clearly with no alternative", func() {
				So(err, ShouldBeNil)
				So(eval.Complete(), ShouldBeTrue)
				rec := eval.Recommendation
				So(rec.Primary, ShouldEqual, model.Science)
				So(rec.Alternative, ShouldBeNil)
				So(rec.Scores[model.Science], ShouldAlmostEqual, 88, 1e-9)
				So(rec.Scores[model.Commerce], ShouldAlmostEqual, 38.4, 1e-9)
				So(rec.Scores[model.Arts], ShouldAlmostEqual, 26, 1e-9)
				So(rec.Scores[model.Vocational], ShouldAlmostEqual, 20, 1e-9)
			})

			Convey("And the most recent class level is used", func() {
				later := uniformStreams(map[model.Category]float64{
					model.Science: 10, model.Commerce: 95, model.Arts: 10, model.Vocational: 10,
				})
				_, err := svc.SubmitMarks(ctx, "s1", "", model.Class12, later)
				So(err, ShouldBeNil)

				eval, err := svc.ComputeRecommendation(ctx, "s1")
				So(err, ShouldBeNil)
				So(eval.Recommendation.Primary, ShouldEqual, model.Commerce)
			})
		})
	})
}

func TestService_Users(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithCatalog(catalog.Builtin()))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When setting an unknown role", func() {
			_, err := svc.SetRole(ctx, "u1", model.Role("teacher"))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a new user chooses the school role", func() {
			u, err := svc.SetRole(ctx, "u1", model.RoleSchool)
			So(err, ShouldBeNil)
			So(u.Role, ShouldEqual, model.RoleSchool)

			got, err := svc.GetUser(ctx, "u1")
			So(err, ShouldBeNil)
			So(got.Role, ShouldEqual, model.RoleSchool)
		})

		Convey("When a profile is updated", func() {
			name := "Kiran"
			level := model.EducationClass12
			interests := []string{" Programming ", "programming", "", "Database"}
			u, err := svc.UpdateProfile(ctx, "s1", service.ProfileUpdate{
				Name: &name, EducationLevel: &level, Interests: &interests,
			})

			Convey("Then interests are cleaned and other fields kept", func() {
				So(err, ShouldBeNil)
				So(u.DisplayName(), ShouldEqual, "Kiran")
				So(u.Role, ShouldEqual, model.RoleStudent)
				So(u.Interests, ShouldResemble, []string{"Programming", "Database"})
			})

			Convey("And course matching uses the profile", func() {
				matches, err := svc.Courses(ctx, "s1", 0)
				So(err, ShouldBeNil)
				So(len(matches), ShouldEqual, 6)
				So(matches[0].Course.ID, ShouldEqual, "bca")
				So(matches[0].Score, ShouldEqual, 90)
				So(matches[0].Reasons[0], ShouldEqual, "Matches your interests: Programming, Database")
			})

			Convey("And an unknown education level is rejected", func() {
				bad := model.EducationLevel("phd")
				_, err := svc.UpdateProfile(ctx, "s1", service.ProfileUpdate{EducationLevel: &bad})
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When an unknown student asks for courses", func() {
			matches, err := svc.Courses(ctx, "nobody", 3)
			So(err, ShouldBeNil)
			So(len(matches), ShouldEqual, 3)
			// Only the management course carries a bonus without a profile.
			So(matches[0].Course.ID, ShouldEqual, "bba")
			So(matches[0].Score, ShouldEqual, 55)
		})
	})
}

func TestService_School(t *testing.T) {
	Convey("Given students at different stages", t, func() {
		ctx := context.Background()
		svc := startService(service.WithMaxListLimit(2))
		defer func() { _ = svc.Stop(ctx) }()

		for _, id := range []string{"s1", "s2", "s3"} {
			_, err := svc.SetRole(ctx, id, model.RoleStudent)
			So(err, ShouldBeNil)
		}
		_, err := svc.SetRole(ctx, "staff", model.RoleSchool)
		So(err, ShouldBeNil)
		_, err = svc.SubmitMarks(ctx, "s1", "staff", model.Class10, scenarioMarks())
		So(err, ShouldBeNil)
		_, err = svc.SubmitInterestSurvey(ctx, "s2", favouring(model.Arts))
		So(err, ShouldBeNil)

		Convey("When the dashboard is computed", func() {
			d, err := svc.Dashboard(ctx)

			Convey("Then counts and rounded percentages reflect progress", func() {
				So(err, ShouldBeNil)
				So(d.TotalStudents, ShouldEqual, 3)
				So(d.MarksSubmittedCount, ShouldEqual, 1)
				So(d.MarksSubmittedPercent, ShouldEqual, 33)
				So(d.AssessmentsCompletedCount, ShouldEqual, 1)
				So(d.AssessmentsPercent, ShouldEqual, 33)
				So(len(d.PendingStudents), ShouldEqual, 2)
				So(d.PendingStudents[0].UserID, ShouldEqual, "s2")
			})
		})

		Convey("When listing with limits outside the allowed range", func() {
			many, err := svc.ListStudents(ctx, "", 500)
			So(err, ShouldBeNil)
			So(len(many), ShouldEqual, 2)

			one, err := svc.ListStudents(ctx, "", -3)
			So(err, ShouldBeNil)
			So(len(one), ShouldEqual, 1)
		})
	})

	Convey("Given no students", t, func() {
		ctx := context.Background()
		svc := startService()
		defer func() { _ = svc.Stop(ctx) }()

		d, err := svc.Dashboard(ctx)
		So(err, ShouldBeNil)
		So(d.TotalStudents, ShouldEqual, 0)
		So(d.MarksSubmittedPercent, ShouldEqual, 0)
		So(d.PendingStudents, ShouldBeEmpty)
	})
}
