package service_test

import (
	"context"
	"testing"

	service "github.com/okian/survivor/internal/app"
	"github.com/okian/survivor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	Convey("Given a service on the embedded season slate", t, func() {
		svc := service.New(
			service.WithWorkers(2),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When inspecting the loaded slate", func() {
			stats := svc.GetStats()

			Convey("Then it should cover the full regular season", func() {
				So(stats["weeks"], ShouldEqual, 18)
				So(stats["games"], ShouldEqual, 272)
				So(stats["teams"], ShouldEqual, 32)
			})
		})

		Convey("When summarizing week 1", func() {
			rows, err := svc.WeekSummary(ctx, 1, false)

			Convey("Then it should return one favorite per game", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 16)
				for _, row := range rows {
					So(row.WinProbability, ShouldBeGreaterThanOrEqualTo, 0.5)
					So(row.Opponent, ShouldNotBeEmpty)
				}
			})

			Convey("And rows should be sorted by expected value", func() {
				So(err, ShouldBeNil)
				for i := 1; i < len(rows); i++ {
					So(rows[i].ExpectedValue, ShouldBeLessThanOrEqualTo, rows[i-1].ExpectedValue)
				}
			})
		})

		Convey("When recommending week by week for one entry", func() {
			entry := model.Entry{Committed: map[int]string{}}
			weeks, err := svc.Weeks(ctx)
			So(err, ShouldBeNil)
			So(weeks, ShouldEqual, 18)

			Convey("Then no team is ever reused", func() {
				used := map[string]bool{}
				for week := 1; week <= 10; week++ {
					picks, err := svc.Recommend(ctx, week, []model.Entry{entry})
					So(err, ShouldBeNil)
					team := picks[0]
					So(used[team], ShouldBeFalse)
					used[team] = true
					entry.Committed[week] = team
				}
			})
		})

		Convey("When simulating three entries for the season", func() {
			entries := []model.Entry{{}, {}, {}}
			result, err := svc.SimulateSeason(ctx, 1, entries, 2000, 7)

			Convey("Then the survival curve is monotone non-increasing", func() {
				So(err, ShouldBeNil)
				So(result.Curve, ShouldHaveLength, 18)
				So(result.Curve[0].Probability, ShouldEqual, 1.0)
				for i := 1; i < len(result.Curve); i++ {
					So(result.Curve[i].Probability, ShouldBeLessThanOrEqualTo, result.Curve[i-1].Probability)
				}
				So(result.OverallProbability, ShouldBeBetweenOrEqual, 0, result.Curve[len(result.Curve)-1].Probability)
			})
		})

		Convey("When applying a week of results twice", func() {
			games, err := svc.WeekSummary(ctx, 1, false)
			So(err, ShouldBeNil)

			results := make([]model.GameResult, 0, len(games))
			for _, row := range games {
				home, away := row.Team, row.Opponent
				if !row.Home {
					home, away = away, home
				}
				results = append(results, model.GameResult{
					Week: 1, Home: home, Away: away, HomeScore: 24, AwayScore: 17,
				})
			}

			So(svc.UpdateRatings(ctx, 1, results), ShouldBeNil)
			first, err := svc.Ratings(ctx)
			So(err, ShouldBeNil)
			So(svc.UpdateRatings(ctx, 1, results), ShouldBeNil)
			second, err := svc.Ratings(ctx)
			So(err, ShouldBeNil)

			Convey("Then the second application is a no-op", func() {
				for team, r := range first {
					So(second[team], ShouldAlmostEqual, r, 1e-9)
				}
			})
		})
	})
}
