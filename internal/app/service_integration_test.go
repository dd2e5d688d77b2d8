package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	service "github.com/okian/votesheet/internal/app"
	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		fixed := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)
		svc := service.New(
			service.WithFeedBuffer(8),
			service.WithClock(func() time.Time { return fixed }),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		id, changes, err := svc.Subscribe(ctx)
		So(err, ShouldBeNil)
		defer svc.Unsubscribe(ctx, id)

		Convey("When edits are applied", func() {
			edits := []types.VoteRequest{
				{Candidate: 0, Category: 0, Value: float64(10)},
				{Candidate: 1, Category: 1, Value: "12"},
				{Candidate: 0, Category: 4, Value: float64(7)},
			}
			for _, e := range edits {
				_, err := svc.SetVote(ctx, e)
				So(err, ShouldBeNil)
			}

			Convey("Then every change is announced in order", func() {
				for want := uint64(1); want <= 3; want++ {
					select {
					case c := <-changes:
						So(c.Revision, ShouldEqual, want)
						So(c.Reason, ShouldEqual, model.ReasonVote)
					case <-time.After(time.Second):
						So("timeout", ShouldBeEmpty)
					}
				}
				So(svc.GetStats(ctx).Subscribers, ShouldEqual, 1)
			})

			Convey("Then the export reflects the sheet", func() {
				body, name, err := svc.Export(ctx)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "voting_results_2025-01-31.csv")
				lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
				So(lines, ShouldHaveLength, 24)
				So(lines[1], ShouldEqual, "Abhishek Tiwari,10,0,0,0,7,17,25.700")
				So(lines[23], ShouldEqual, "E (1030),7,6,116.7%")
			})

			Convey("And a reset restores the empty sheet", func() {
				sheet, err := svc.Reset(ctx)
				So(err, ShouldBeNil)
				So(sheet.Revision, ShouldEqual, 4)
				So(sheet.Summary.TotalVotes, ShouldEqual, 0)
				for i, e := range sheet.Rankings {
					So(e.Candidate, ShouldEqual, i)
				}
				So(svc.GetStats(ctx).Resets, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service seeded with initial votes", t, func() {
		seed := make([][]int, 16)
		for i := range seed {
			seed[i] = make([]int, 5)
		}
		seed[3][2] = 4
		svc := service.New(service.WithInitialVotes(seed))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the sheet is edited and reset", func() {
			_, err := svc.SetVote(ctx, types.VoteRequest{Candidate: 3, Category: 2, Value: float64(40)})
			So(err, ShouldBeNil)
			sheet, err := svc.Reset(ctx)
			So(err, ShouldBeNil)

			Convey("Then the seed is restored", func() {
				So(sheet.Rows[3].Votes[2], ShouldEqual, 4)
				So(sheet.Rankings[0].Candidate, ShouldEqual, 3)
			})
		})
	})
}
