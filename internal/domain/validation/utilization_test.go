package validation_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

func stockSheet(t *testing.T) *scoring.Sheet {
	t.Helper()
	cats := []model.Category{
		{Key: "A", Name: "1995", Weight: 1.870, MaxVotes: 94},
		{Key: "B", Name: "1695", Weight: 1.574, MaxVotes: 300},
		{Key: "C", Name: "1495", Weight: 1.398, MaxVotes: 391},
		{Key: "D", Name: "13XX", Weight: 1.261, MaxVotes: 647},
		{Key: "E", Name: "1030", Weight: 1.000, MaxVotes: 6},
	}
	names := make([]string, 16)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	s, err := scoring.New(cats, names)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestClassify(t *testing.T) {
	Convey("Given default rules", t, func() {
		r := validation.NewRules()

		Convey("Then boundaries are inclusive on the lower class", func() {
			So(r.Classify(0), ShouldEqual, validation.StatusNormal)
			So(r.Classify(80), ShouldEqual, validation.StatusNormal)
			So(r.Classify(80.01), ShouldEqual, validation.StatusWarning)
			So(r.Classify(100), ShouldEqual, validation.StatusWarning)
			So(r.Classify(100.01), ShouldEqual, validation.StatusOverLimit)
			So(r.Classify(math.Inf(1)), ShouldEqual, validation.StatusOverLimit)
		})
	})

	Convey("Given a custom threshold", t, func() {
		r := validation.NewRules(validation.WithWarningPercent(50))
		So(r.WarningPercent(), ShouldEqual, 50)
		So(r.Classify(60), ShouldEqual, validation.StatusWarning)

		Convey("When the threshold is out of range it is ignored", func() {
			So(validation.NewRules(validation.WithWarningPercent(0)).WarningPercent(), ShouldEqual, 80)
			So(validation.NewRules(validation.WithWarningPercent(140)).WarningPercent(), ShouldEqual, 80)
		})
	})
}

func TestPercent(t *testing.T) {
	Convey("Given usage against a ceiling", t, func() {
		So(validation.Percent(47, 94), ShouldEqual, 50)
		So(fmt.Sprintf("%.1f", validation.Percent(7, 6)), ShouldEqual, "116.7")

		Convey("When the ceiling is zero", func() {
			So(validation.Percent(0, 0), ShouldEqual, 0)
			So(math.IsInf(validation.Percent(1, 0), 1), ShouldBeTrue)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given the stock sheet", t, func() {
		s := stockSheet(t)
		r := validation.NewRules()

		Convey("When category E (max 6) receives 7 votes", func() {
			So(s.SetVote(0, 4, 7), ShouldBeNil)
			usage := r.Evaluate(s)

			Convey("Then it is over-limit at 116.7%", func() {
				e := usage[4]
				So(e.Label, ShouldEqual, "E (1030)")
				So(e.Used, ShouldEqual, 7)
				So(e.Max, ShouldEqual, 6)
				So(fmt.Sprintf("%.1f", e.Percent), ShouldEqual, "116.7")
				So(e.Status, ShouldEqual, validation.StatusOverLimit)
				So(validation.OverLimit(usage), ShouldEqual, 1)
			})

			Convey("And the vote is still stored", func() {
				So(s.Vote(0, 4), ShouldEqual, 7)
			})
		})

		Convey("When category A is at 90%", func() {
			So(s.SetVote(3, 0, 80), ShouldBeNil)
			So(s.SetVote(4, 0, 4), ShouldBeNil)
			usage := r.Evaluate(s)

			Convey("Then it warns", func() {
				So(usage[0].Used, ShouldEqual, 84)
				So(usage[0].Status, ShouldEqual, validation.StatusWarning)
				So(usage[1].Status, ShouldEqual, validation.StatusNormal)
			})
		})
	})
}
