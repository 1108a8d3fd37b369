package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/smartystreets/goconvey/convey"
)

func TestErrorKinds(t *testing.T) {
	convey.Convey("Given classified errors", t, func() {
		convey.Convey("When wrapping a cause with a kind", func() {
			cause := errors.New("row locked")
			err := apperr.WrapKind("store.Update", apperr.ErrConflict, cause)

			convey.Convey("Then both kind and cause are reachable", func() {
				convey.So(errors.Is(err, apperr.ErrConflict), convey.ShouldBeTrue)
				convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
				convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrConflict)
				convey.So(err.Error(), convey.ShouldEqual, "store.Update: conflict: row locked")
			})

			convey.Convey("And further %w wrapping keeps the kind", func() {
				outer := fmt.Errorf("use-case: %w", err)
				convey.So(apperr.KindOf(outer), convey.ShouldEqual, apperr.ErrConflict)
			})
		})

		convey.Convey("When wrapping nil", func() {
			convey.So(apperr.WrapKind("op", apperr.ErrInternal, nil), convey.ShouldBeNil)
		})

		convey.Convey("When building a validation error", func() {
			err := apperr.Validation("rejection.Reject", map[string]string{
				"notes":    "must be at least 20 characters",
				"category": "unknown value",
			})

			convey.Convey("Then fields are carried and rendered in order", func() {
				convey.So(errors.Is(err, apperr.ErrValidation), convey.ShouldBeTrue)
				convey.So(apperr.FieldsOf(err), convey.ShouldContainKey, "notes")
				convey.So(err.Error(), convey.ShouldEqual,
					"rejection.Reject: validation failed (category: unknown value; notes: must be at least 20 characters)")
			})
		})

		convey.Convey("When the error is unclassified", func() {
			err := errors.New("dial tcp: connection refused")

			convey.Convey("Then it is internal and its detail is hidden", func() {
				convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrInternal)
				convey.So(apperr.Public(err), convey.ShouldEqual, "internal error")
				convey.So(apperr.Label(err), convey.ShouldEqual, "internal")
			})
		})

		convey.Convey("When the error is a classified not-found", func() {
			err := apperr.NewKind("app.GetCandidate", apperr.ErrNotFound, "candidate %s", "c-1")

			convey.Convey("Then the public message is the cause text", func() {
				convey.So(apperr.Public(err), convey.ShouldEqual, "candidate c-1")
				convey.So(apperr.Label(err), convey.ShouldEqual, "not_found")
			})
		})

		convey.Convey("When labelling nil and timeout", func() {
			convey.So(apperr.Label(nil), convey.ShouldEqual, "ok")
			timeout := apperr.WrapKind("cache.Get", apperr.ErrTimeout, context.DeadlineExceeded)
			convey.So(apperr.Label(timeout), convey.ShouldEqual, "timeout")
			convey.So(apperr.Public(nil), convey.ShouldEqual, "")
		})
	})
}
