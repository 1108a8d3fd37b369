package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/talentflow/internal/adapters/cache"
	"github.com/okian/talentflow/internal/domain/apperr"
	. "github.com/smartystreets/goconvey/convey"
)

type view struct {
	Stage string `json:"stage"`
}

// counter returns a loader that reports the current stage and counts calls.
func counter(stage *string, calls *atomic.Int64) cache.Loader[view] {
	return func(context.Context) (view, error) {
		calls.Add(1)
		return view{Stage: *stage}, nil
	}
}

// backends yields each backend under test in a fresh state.
func backends(t *testing.T) map[string]func() (cache.Backend, func(time.Duration)) {
	return map[string]func() (cache.Backend, func(time.Duration)){
		"memory": func() (cache.Backend, func(time.Duration)) {
			var mu sync.Mutex
			now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			b := cache.NewMemoryBackend(cache.WithClock(func() time.Time {
				mu.Lock()
				defer mu.Unlock()
				return now
			}))
			return b, func(d time.Duration) {
				mu.Lock()
				now = now.Add(d)
				mu.Unlock()
			}
		},
		"redis": func() (cache.Backend, func(time.Duration)) {
			mr := miniredis.RunT(t)
			b := cache.NewRedisBackend(cache.NewRedisClient(mr.Addr(), "", 0), cache.WithKeyPrefix("test:"))
			return b, mr.FastForward
		},
	}
}

func TestGetCached(t *testing.T) {
	for name, mk := range backends(t) {
		Convey("Given a cache over the "+name+" backend", t, func() {
			ctx := context.Background()
			backend, advance := mk()
			c := cache.New(backend)
			Reset(func() { _ = c.Close() })
			stage := "SCREENING"
			var calls atomic.Int64
			tags := []cache.Tag{cache.TagCandidates, cache.CandidateTag("c-1")}

			Convey("When the same key is read twice", func() {
				first, err := cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))
				So(err, ShouldBeNil)
				second, err := cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))
				So(err, ShouldBeNil)

				Convey("Then the loader runs once", func() {
					So(first, ShouldResemble, second)
					So(calls.Load(), ShouldEqual, 1)
				})
			})

			Convey("When the store changes and the per-entity tag is purged", func() {
				_, _ = cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))
				stage = "TECHNICAL_L1"
				So(c.PurgeTag(ctx, cache.CandidateTag("c-1")), ShouldBeNil)
				v, err := cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))

				Convey("Then the next read never returns the pre-write value", func() {
					So(err, ShouldBeNil)
					So(v.Stage, ShouldEqual, "TECHNICAL_L1")
					So(calls.Load(), ShouldEqual, 2)
				})
			})

			Convey("When the coarse tag is purged", func() {
				listTags := []cache.Tag{cache.TagCandidates}
				_, _ = cache.GetCached(ctx, c, cache.KeyCandidates, listTags, time.Minute, counter(&stage, &calls))
				_, _ = cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))
				So(c.PurgeTag(ctx, cache.TagCandidates), ShouldBeNil)
				_, _ = cache.GetCached(ctx, c, cache.KeyCandidates, listTags, time.Minute, counter(&stage, &calls))
				_, _ = cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))

				Convey("Then both the list and the detail reload", func() {
					So(calls.Load(), ShouldEqual, 4)
				})
			})

			Convey("When an unrelated tag is purged", func() {
				_, _ = cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))
				So(c.PurgeTag(ctx, cache.CandidateTag("c-2"), cache.TagJobs), ShouldBeNil)
				_, _ = cache.GetCached(ctx, c, cache.CandidateKey("c-1"), tags, time.Minute, counter(&stage, &calls))

				Convey("Then the entry survives", func() {
					So(calls.Load(), ShouldEqual, 1)
				})
			})

			Convey("When a view depends on settings and candidates", func() {
				rejTags := []cache.Tag{cache.TagSettings, cache.TagCandidates}
				_, _ = cache.GetCached(ctx, c, cache.KeyRejections, rejTags, time.Minute, counter(&stage, &calls))
				So(c.PurgeTag(ctx, cache.TagCandidates), ShouldBeNil)
				_, _ = cache.GetCached(ctx, c, cache.KeyRejections, rejTags, time.Minute, counter(&stage, &calls))

				Convey("Then a candidate-side purge invalidates it", func() {
					So(calls.Load(), ShouldEqual, 2)
				})
			})

			Convey("When the TTL expires", func() {
				_, _ = cache.GetCached(ctx, c, cache.KeyJobs, []cache.Tag{cache.TagJobs}, time.Second, counter(&stage, &calls))
				advance(2 * time.Second)
				_, _ = cache.GetCached(ctx, c, cache.KeyJobs, []cache.Tag{cache.TagJobs}, time.Second, counter(&stage, &calls))

				Convey("Then the loader runs again", func() {
					So(calls.Load(), ShouldEqual, 2)
				})
			})

			Convey("When the loader fails", func() {
				boom := apperr.NewKind("store", apperr.ErrNotFound, "candidate c-9")
				_, err := cache.GetCached(ctx, c, cache.CandidateKey("c-9"), tags, time.Minute,
					func(context.Context) (view, error) { return view{}, boom })

				Convey("Then the error propagates and nothing is stored", func() {
					So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
					v, err := cache.GetCached(ctx, c, cache.CandidateKey("c-9"), tags, time.Minute, counter(&stage, &calls))
					So(err, ShouldBeNil)
					So(v.Stage, ShouldEqual, "SCREENING")
				})
			})

			Convey("When the caller deadline has already passed", func() {
				dctx, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
				defer cancel()
				_, err := cache.GetCached(dctx, c, cache.KeyUsers, []cache.Tag{cache.TagUsers}, time.Minute, counter(&stage, &calls))

				Convey("Then a timeout is reported without loading", func() {
					So(errors.Is(err, apperr.ErrTimeout), ShouldBeTrue)
					So(calls.Load(), ShouldEqual, 0)
				})
			})

			Convey("When the loader runs out of time", func() {
				dctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
				defer cancel()
				_, err := cache.GetCached(dctx, c, cache.KeyUsers, []cache.Tag{cache.TagUsers}, time.Minute,
					func(lctx context.Context) (view, error) {
						<-lctx.Done()
						return view{}, lctx.Err()
					})
				So(errors.Is(err, apperr.ErrTimeout), ShouldBeTrue)
			})

			Convey("When no valid tag is given", func() {
				_, err := cache.GetCached(ctx, c, cache.KeyUsers, []cache.Tag{{}}, time.Minute, counter(&stage, &calls))
				So(errors.Is(err, cache.ErrNoTags), ShouldBeTrue)
			})
		})
	}
}

func TestRedisBackendDegrades(t *testing.T) {
	Convey("Given a redis-backed cache whose server goes away", t, func() {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		c := cache.New(cache.NewRedisBackend(cache.NewRedisClient(mr.Addr(), "", 0)))
		stage := "HR"
		var calls atomic.Int64
		mr.Close()

		Convey("When reading", func() {
			v, err := cache.GetCached(ctx, c, cache.KeyInterviewers, []cache.Tag{cache.TagUsers}, time.Minute, counter(&stage, &calls))

			Convey("Then the read falls through to the loader", func() {
				So(err, ShouldBeNil)
				So(v.Stage, ShouldEqual, "HR")
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When purging", func() {
			err := c.PurgeTag(ctx, cache.TagUsers)

			Convey("Then the failure is reported", func() {
				So(errors.Is(err, cache.ErrBackend), ShouldBeTrue)
			})
		})
	})
}

func TestTagsAndKeys(t *testing.T) {
	Convey("Given tags and keys", t, func() {
		So(cache.CandidateTag("7").String(), ShouldEqual, "candidate:7")
		So(cache.CandidateTag("7").Kind(), ShouldEqual, "candidate")
		So(cache.TagSettings.String(), ShouldEqual, "settings")
		So(cache.Tag{}.Valid(), ShouldBeFalse)
		So(cache.JobKey("j").View(), ShouldEqual, "job")
		So(cache.FeedbackKey("c").View(), ShouldEqual, "candidate")
		So(cache.KeyPipelineSummary.View(), ShouldEqual, "pipeline")
	})
}

func TestMemoryBackendSweep(t *testing.T) {
	Convey("Given a memory backend with expired entries", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		b := cache.NewMemoryBackend(cache.WithClock(func() time.Time { return now }))
		So(b.Set(ctx, "old", []byte(`1`), []string{"jobs"}, time.Second), ShouldBeNil)
		now = now.Add(time.Minute)

		Convey("When enough writes happen", func() {
			for i := 0; i < 300; i++ {
				_ = b.Set(ctx, "k", []byte{byte(i)}, []string{"jobs"}, time.Hour)
			}

			Convey("Then expired entries are dropped", func() {
				_, ok, _ := b.Get(ctx, "old")
				So(ok, ShouldBeFalse)
				So(b.Len(), ShouldEqual, 1)
			})
		})

		Convey("When an entry is overwritten with new tags", func() {
			So(b.Set(ctx, "old", []byte(`2`), []string{"users"}, time.Hour), ShouldBeNil)
			So(b.PurgeTag(ctx, "jobs"), ShouldBeNil)

			Convey("Then the old tag no longer reaches it", func() {
				val, ok, _ := b.Get(ctx, "old")
				So(ok, ShouldBeTrue)
				So(string(val), ShouldEqual, "2")
			})
		})
	})
}
