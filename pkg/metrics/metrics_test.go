package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "streamwise")
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithMetricsEnabled(false),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.Enabled(), ShouldBeFalse)
			})

			Convey("And metric names carry the namespace", func() {
				manager.submissions.WithLabelValues("marks", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_unit_submissions_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "streamwise")
				So(manager.subsystem, ShouldEqual, "guidance")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("survey", "rejected"))
			RecordSubmission("survey", "rejected")

			Convey("Then the counter increments", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("survey", "rejected")), ShouldEqual, before+1)
			})
		})

		Convey("When recording a recommendation with an alternative", func() {
			before := testutil.ToFloat64(globalManager.alternatives.WithLabelValues("within_5"))
			RecordRecommendation("science", "within_5", 1.5)

			Convey("Then the alternative counter increments", func() {
				So(testutil.ToFloat64(globalManager.alternatives.WithLabelValues("within_5")), ShouldEqual, before+1)
			})
		})

		Convey("When recording missing data", func() {
			before := testutil.ToFloat64(globalManager.missingData.WithLabelValues("false", "true"))
			RecordMissingData(false, true)
			So(testutil.ToFloat64(globalManager.missingData.WithLabelValues("false", "true")), ShouldEqual, before+1)
		})

		Convey("When updating pipeline gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7.0)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100.0)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4.0)
			})
		})

		Convey("When recording repository failures", func() {
			before := testutil.ToFloat64(globalManager.repositoryErrors.WithLabelValues("put_marks"))
			RecordRepositoryOp("put_marks", 2, errors.New("disk full"))
			RecordRepositoryOp("put_marks", 1, nil)
			So(testutil.ToFloat64(globalManager.repositoryErrors.WithLabelValues("put_marks")), ShouldEqual, before+1)
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordQueueEnqueueError("full")
				RecordJobCoalesced()
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordSnapshotPersisted()
				UpdateRepositoryRecords("users", 3)
				RecordHTTPRequest("students.marks", "PUT", "200")
				RecordHTTPRequestDuration("students.marks", "PUT", "200", 4)
				RecordErrorByEndpoint("students.survey", "PUT", "client_error")
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers without error", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
