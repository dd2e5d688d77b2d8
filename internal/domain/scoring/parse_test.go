package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/votesheet/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseVote(t *testing.T) {
	Convey("Given raw vote text", t, func() {
		cases := []struct {
			raw  string
			want int
			kind scoring.Coercion
		}{
			{"12", 12, scoring.CoercionNone},
			{"  8 ", 8, scoring.CoercionNone},
			{"+4", 4, scoring.CoercionNone},
			{"0", 0, scoring.CoercionNone},
			{"", 0, scoring.CoercionNonNumeric},
			{"abc", 0, scoring.CoercionNonNumeric},
			{"-", 0, scoring.CoercionNonNumeric},
			{"-5", 0, scoring.CoercionNegative},
			{"3.9", 3, scoring.CoercionFraction},
			{"7abc", 7, scoring.CoercionTrailing},
			{"99999999999999999999", scoring.MaxVote, scoring.CoercionOverflow},
		}

		Convey("Then each is read as its leading integer", func() {
			for _, c := range cases {
				got, kind := scoring.ParseVote(c.raw)
				So(got, ShouldEqual, c.want)
				So(kind, ShouldEqual, c.kind)
			}
		})
	})

	Convey("Given invalid input stored in a cell", t, func() {
		s := newSheet(t)
		zero := newSheet(t)

		Convey("When it is coerced and stored", func() {
			for _, raw := range []string{"", "x", "-12"} {
				v, _ := scoring.ParseVote(raw)
				So(s.SetVote(2, 3, v), ShouldBeNil)
			}
			So(zero.SetVote(2, 3, 0), ShouldBeNil)

			Convey("Then the sheet equals one where zero was stored", func() {
				So(s.Matrix(), ShouldResemble, zero.Matrix())
				So(s.Ranked(), ShouldResemble, zero.Ranked())
			})
		})
	})
}

func TestCoerceVote(t *testing.T) {
	Convey("Given decoded values", t, func() {
		Convey("When they are numbers", func() {
			v, kind := scoring.CoerceVote(float64(5))
			So(v, ShouldEqual, 5)
			So(kind, ShouldEqual, scoring.CoercionNone)

			v, kind = scoring.CoerceVote(2.7)
			So(v, ShouldEqual, 2)
			So(kind, ShouldEqual, scoring.CoercionFraction)

			v, kind = scoring.CoerceVote(-1)
			So(v, ShouldEqual, 0)
			So(kind, ShouldEqual, scoring.CoercionNegative)

			v, kind = scoring.CoerceVote(math.Inf(1))
			So(v, ShouldEqual, scoring.MaxVote)
			So(kind, ShouldEqual, scoring.CoercionOverflow)

			v, kind = scoring.CoerceVote(math.NaN())
			So(v, ShouldEqual, 0)
			So(kind, ShouldEqual, scoring.CoercionNonNumeric)
		})

		Convey("When they are strings", func() {
			v, kind := scoring.CoerceVote("14")
			So(v, ShouldEqual, 14)
			So(kind, ShouldEqual, scoring.CoercionNone)
		})

		Convey("When they are neither", func() {
			for _, in := range []any{nil, true, map[string]any{}} {
				v, kind := scoring.CoerceVote(in)
				So(v, ShouldEqual, 0)
				So(kind, ShouldEqual, scoring.CoercionNonNumeric)
			}
		})
	})
}
