package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/okian/talentflow/internal/adapters/blob"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("Given a blob store", t, func() {
		ctx := context.Background()
		s, err := blob.NewStore(t.TempDir(), blob.WithMaxSize(64))
		So(err, ShouldBeNil)

		Convey("When a file is stored", func() {
			ref, err := s.Put(ctx, "../../etc/Ada CV.pdf", strings.NewReader("resume bytes"))
			So(err, ShouldBeNil)

			Convey("Then the key is unique and sanitized", func() {
				So(string(ref), ShouldEndWith, "-Ada_CV.pdf")
				So(string(ref), ShouldNotContainSubstring, "/")
			})

			Convey("Then it can be read back", func() {
				rc, err := s.Open(ctx, ref)
				So(err, ShouldBeNil)
				defer rc.Close()
				b, _ := io.ReadAll(rc)
				So(string(b), ShouldEqual, "resume bytes")
			})

			Convey("Then deleting it makes it unreadable", func() {
				So(s.Delete(ctx, ref), ShouldBeNil)
				_, err := s.Open(ctx, ref)
				So(errors.Is(err, blob.ErrNotFound), ShouldBeTrue)
				So(s.Delete(ctx, ref), ShouldBeNil)
			})
		})

		Convey("When an upload exceeds the size limit", func() {
			_, err := s.Put(ctx, "big.txt", strings.NewReader(strings.Repeat("x", 65)))
			So(errors.Is(err, blob.ErrTooLarge), ShouldBeTrue)
		})

		Convey("When a ref tries to escape the root", func() {
			_, err := s.Open(ctx, blob.Ref("../secret"))
			So(errors.Is(err, blob.ErrInvalidRef), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.Put(cctx, "a.txt", strings.NewReader("x"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
