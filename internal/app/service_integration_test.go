package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/adapters/repository"
	"github.com/okian/streamwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by SQLite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := repository.Open(ctx, repository.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)")
		So(err, ShouldBeNil)
		store := repository.NewSQLStore(db, repository.DriverSQLite)

		svc := service.New(
			service.WithStore(store),
			service.WithWorkerCount(2),
			service.WithQueueSize(1000),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a student completes both submissions", func() {
			_, err := svc.SubmitMarks(ctx, "s1", "", model.Class10, scenarioMarks())
			So(err, ShouldBeNil)
			_, err = svc.SubmitInterestSurvey(ctx, "s1", favouring(model.Science))
			So(err, ShouldBeNil)

			Convey("Then a snapshot is persisted in the background", func() {
				ok := waitFor(func() bool {
					snap, err := svc.LatestSnapshot(ctx, "s1")
					return err == nil && snap.Primary == model.Science
				})
				So(ok, ShouldBeTrue)

				students, err := svc.ListStudents(ctx, "", 0)
				So(err, ShouldBeNil)
				So(len(students), ShouldEqual, 1)
				So(students[0].HasRecommendations, ShouldBeTrue)
			})

			Convey("And the synchronous recommendation agrees with the snapshot", func() {
				eval, err := svc.ComputeRecommendation(ctx, "s1")
				So(err, ShouldBeNil)
				So(eval.Recommendation.Primary, ShouldEqual, model.Science)
			})
		})

		Convey("When only marks are submitted", func() {
			_, err := svc.SubmitMarks(ctx, "s2", "", model.Class12, scenarioMarks())
			So(err, ShouldBeNil)

			Convey("Then the recompute runs but stores nothing", func() {
				So(waitFor(func() bool {
					processed, _ := svc.GetStats(ctx)["processedJobs"].(int64)
					return processed >= 1
				}), ShouldBeTrue)
				n, err := store.CountSnapshots(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}

func TestServiceConcurrentSubmissions(t *testing.T) {
	Convey("Given many students submitting at once", t, func() {
		ctx := context.Background()
		svc := startService(service.WithWorkerCount(4))
		defer func() { _ = svc.Stop(ctx) }()

		const students = 20
		var wg sync.WaitGroup
		errs := make(chan error, students*2)
		for i := 0; i < students; i++ {
			id := fmt.Sprintf("student-%02d", i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.SubmitMarks(ctx, id, "", model.Class10, scenarioMarks()); err != nil {
					errs <- err
				}
				if _, err := svc.SubmitInterestSurvey(ctx, id, favouring(model.Arts)); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then every submission succeeds", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
		})

		Convey("And every student eventually has a snapshot", func() {
			So(waitFor(func() bool {
				d, err := svc.Dashboard(ctx)
				return err == nil && d.RecommendedStudentsCount == students
			}), ShouldBeTrue)

			d, err := svc.Dashboard(ctx)
			So(err, ShouldBeNil)
			So(d.MarksSubmittedPercent, ShouldEqual, 100)
			So(d.AssessmentsPercent, ShouldEqual, 100)
		})
	})
}
