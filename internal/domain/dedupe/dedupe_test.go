package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/talentflow/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When a candidate id is recorded", func() {
			first := d.SeenAndRecord(ctx, "cand-1")

			Convey("Then the first call reports it as new", func() {
				So(first, ShouldBeFalse)
				So(d.Pending("cand-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat reports it as pending", func() {
				So(d.SeenAndRecord(ctx, "cand-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And after unrecording it is new again", func() {
				d.Unrecord(ctx, "cand-1")
				So(d.Pending("cand-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "cand-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			So(func() { d.Unrecord(ctx, "ghost") }, ShouldNotPanic)
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"a", "b", "c"} {
			d.SeenAndRecord(ctx, id)
		}

		Convey("When a fourth key arrives", func() {
			d.SeenAndRecord(ctx, "d")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.Pending("a"), ShouldBeFalse)
				So(d.Pending("b"), ShouldBeTrue)
				So(d.Pending("d"), ShouldBeTrue)
			})
		})

		Convey("When a middle key is released first", func() {
			d.Unrecord(ctx, "b")
			d.SeenAndRecord(ctx, "e")

			Convey("Then nothing needs evicting", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.Pending("a"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 20_000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
		}
		So(d.Size(), ShouldEqual, 20_000)
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same id", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var wins atomic.Int64
		var wg sync.WaitGroup

		for n := 0; n < 64; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "cand-hot") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one records it", func() {
			So(wins.Load(), ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
