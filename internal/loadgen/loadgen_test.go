package loadgen

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/streamwise/internal/adapters/catalog"
	"github.com/okian/streamwise/internal/adapters/http/api"
	service "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/domain/marks"
	"github.com/okian/streamwise/internal/domain/model"
	"github.com/okian/streamwise/internal/domain/scoring"
	"github.com/okian/streamwise/internal/domain/survey"
	"github.com/okian/streamwise/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestGenerateStudent(t *testing.T) {
	convey.Convey("Given a scoring engine", t, func() {
		engine, err := scoring.New()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a student is generated", func() {
			s, err := generateStudent(engine)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every subject has a mark in range", func() {
				convey.So(strings.HasPrefix(s.ID, "load-"), convey.ShouldBeTrue)
				convey.So(len(s.Streams), convey.ShouldEqual, len(marks.Subjects))
				for _, m := range s.Streams {
					for _, v := range m {
						convey.So(v, convey.ShouldBeBetweenOrEqual, 0.0, 100.0)
					}
				}
			})

			convey.Convey("And the survey answers every question on the scale", func() {
				convey.So(len(s.Answers), convey.ShouldEqual, len(engine.Questions()))
				for _, a := range s.Answers {
					convey.So(a.Value, convey.ShouldBeBetweenOrEqual, survey.LikertMin, survey.LikertMax)
				}
			})

			convey.Convey("And the expectation matches a fresh evaluation", func() {
				exp, err := expect(engine, s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(exp.Primary, convey.ShouldEqual, s.Expected.Primary)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service with development tokens", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithCatalog(catalog.Builtin()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc, auth.NewService("load-secret"), api.WithDevTokens(true)).Router())

		convey.Reset(func() {
			srv.Close()
			_ = svc.Stop(context.Background())
		})

		output := filepath.Join(t.TempDir(), "out", "students.json")
		config := &Config{
			BaseURL:     srv.URL,
			NumStudents: 25,
			Workers:     4,
			Timeout:     5 * time.Second,
			SettleTime:  5 * time.Second,
			OutputFile:  output,
		}

		convey.Convey("When the load test runs", func() {
			err := Run(context.Background(), config)

			convey.Convey("Then every recommendation matches", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(output)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given no service at the target URL", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		convey.Convey("Then the health check fails fast", func() {
			err := Run(context.Background(), &Config{BaseURL: url, NumStudents: 1, Workers: 1, Timeout: time.Second})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
		})
	})
}

func TestMatches(t *testing.T) {
	convey.Convey("Given an expectation without an alternative", t, func() {
		want := Expectation{Primary: model.Science}

		convey.So(matches(want, recommendationResponse{Primary: model.Science}), convey.ShouldBeTrue)
		convey.So(matches(want, recommendationResponse{Primary: model.Arts}), convey.ShouldBeFalse)
		convey.So(matches(want, recommendationResponse{Error: "MissingData"}), convey.ShouldBeFalse)

		convey.Convey("When the expectation carries an alternative", func() {
			alt := model.Commerce
			want.Alternative = &alt

			convey.So(matches(want, recommendationResponse{Primary: model.Science}), convey.ShouldBeFalse)
			convey.So(matches(want, recommendationResponse{Primary: model.Science, Alternative: &alt}), convey.ShouldBeTrue)
		})
	})
}
