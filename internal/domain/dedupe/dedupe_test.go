package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/streamwise/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, int64(0))

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "student-1")

			Convey("Then it is reported as new and tracked", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, int64(1))
			})

			Convey("And a second record coalesces", func() {
				So(d.SeenAndRecord(ctx, "student-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(1))
			})

			Convey("And after Unrecord it can be recorded again", func() {
				d.Unrecord(ctx, "student-1")
				So(d.Size(), ShouldEqual, int64(0))
				So(d.SeenAndRecord(ctx, "student-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			d.Unrecord(ctx, "nobody")
			So(d.Size(), ShouldEqual, int64(0))
		})
	})

	Convey("Given a bounded deduper that is full", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")

		Convey("Then new keys pass through without being tracked", func() {
			So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, int64(2))
		})

		Convey("And tracked keys still coalesce", func() {
			So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
		}
		So(d.Size(), ShouldEqual, int64(1000))
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given concurrent recorders of the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(context.Background(), "shared") {
					fresh.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one wins", func() {
			So(fresh.Load(), ShouldEqual, int64(1))
			So(d.Size(), ShouldEqual, int64(1))
		})
	})
}
