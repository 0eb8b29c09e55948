package rating_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func seedRatings() map[string]float64 {
	return map[string]float64{
		"Alphas": 1600,
		"Bravos": 1400,
		"Comets": 1500,
	}
}

func TestWinProbability(t *testing.T) {
	Convey("Given the Elo logistic transform", t, func() {
		Convey("Then equal ratings are a coin flip", func() {
			So(rating.WinProbability(0, 400), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("Then a 200-point edge lands near 76 percent", func() {
			So(rating.WinProbability(200, 400), ShouldAlmostEqual, 0.7597, 1e-4)
		})

		Convey("Then complementary differentials sum to one", func() {
			p := rating.WinProbability(135, 400)
			q := rating.WinProbability(-135, 400)
			So(p+q, ShouldAlmostEqual, 1.0, 1e-12)
		})

		Convey("Then the transform is monotone in the differential", func() {
			So(rating.WinProbability(50, 400), ShouldBeLessThan, rating.WinProbability(100, 400))
		})
	})
}

func TestStore_Ratings(t *testing.T) {
	Convey("Given a store seeded from a ratings table", t, func() {
		seed := seedRatings()
		store := rating.NewStore(seed)

		Convey("Then individual lookups return the seeded values", func() {
			r, err := store.Rating("Alphas")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, 1600)
		})

		Convey("Then an unseeded team fails with ErrUnknownTeam", func() {
			_, err := store.Rating("Phantoms")
			So(errors.Is(err, rating.ErrUnknownTeam), ShouldBeTrue)
		})

		Convey("Then the snapshot is a copy in both directions", func() {
			seed["Alphas"] = 9999
			snap := store.Ratings()
			So(snap["Alphas"], ShouldEqual, 1600)

			snap["Bravos"] = 1
			r, err := store.Rating("Bravos")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, 1400)
		})

		Convey("Then defaults are exposed for downstream models", func() {
			So(store.Scale(), ShouldEqual, 400)
			So(store.HomeAdvantage(), ShouldEqual, 65)
			So(store.AppliedThrough(), ShouldEqual, 0)
		})
	})

	Convey("Given configuration options", t, func() {
		store := rating.NewStore(seedRatings(),
			rating.WithKFactor(32),
			rating.WithScale(350),
			rating.WithHomeAdvantage(0),
		)

		Convey("Then they override the defaults", func() {
			So(store.Scale(), ShouldEqual, 350)
			So(store.HomeAdvantage(), ShouldEqual, 0)
		})
	})
}

func TestStore_UpdateThrough(t *testing.T) {
	Convey("Given a seeded store with no home edge", t, func() {
		store := rating.NewStore(seedRatings(), rating.WithHomeAdvantage(0))
		results := []model.GameResult{
			{Week: 1, Home: "Bravos", Away: "Alphas", HomeScore: 24, AwayScore: 17},
		}

		Convey("When an upset result is applied", func() {
			err := store.UpdateThrough(1, results)
			So(err, ShouldBeNil)

			Convey("Then the winner rises and the loser drops by the same amount", func() {
				bravos, _ := store.Rating("Bravos")
				alphas, _ := store.Rating("Alphas")
				So(bravos, ShouldBeGreaterThan, 1400)
				So(alphas, ShouldBeLessThan, 1600)
				So(bravos-1400, ShouldAlmostEqual, 1600-alphas, 1e-9)
			})

			Convey("Then the rating sum is unchanged", func() {
				var sum float64
				for _, r := range store.Ratings() {
					sum += r
				}
				So(sum, ShouldAlmostEqual, 4500, 1e-9)
			})

			Convey("Then the watermark advances", func() {
				So(store.AppliedThrough(), ShouldEqual, 1)
			})

			Convey("And reapplying the same results is a no-op", func() {
				before := store.Ratings()
				err := store.UpdateThrough(1, results)
				So(err, ShouldBeNil)
				after := store.Ratings()
				for team, r := range before {
					So(after[team], ShouldAlmostEqual, r, 1e-12)
				}
			})
		})

		Convey("When results beyond the requested week are supplied", func() {
			mixed := append(results, model.GameResult{
				Week: 2, Home: "Alphas", Away: "Comets", HomeScore: 30, AwayScore: 10,
			})
			err := store.UpdateThrough(1, mixed)
			So(err, ShouldBeNil)

			Convey("Then the later week is left for a future call", func() {
				comets, _ := store.Rating("Comets")
				So(comets, ShouldEqual, 1500)
				So(store.AppliedThrough(), ShouldEqual, 1)
			})
		})

		Convey("When a result names an unknown team", func() {
			err := store.UpdateThrough(1, []model.GameResult{
				{Week: 1, Home: "Phantoms", Away: "Alphas", HomeScore: 3, AwayScore: 0},
			})

			Convey("Then it fails with ErrUnknownTeam", func() {
				So(errors.Is(err, rating.ErrUnknownTeam), ShouldBeTrue)
			})
		})

		Convey("When a batch mixes valid games with an unknown team", func() {
			mixed := append(results, model.GameResult{
				Week: 1, Home: "Phantoms", Away: "Comets", HomeScore: 21, AwayScore: 7,
			})
			err := store.UpdateThrough(1, mixed)
			So(errors.Is(err, rating.ErrUnknownTeam), ShouldBeTrue)

			Convey("Then the failed batch leaves the ratings untouched", func() {
				bravos, _ := store.Rating("Bravos")
				alphas, _ := store.Rating("Alphas")
				So(bravos, ShouldEqual, 1400)
				So(alphas, ShouldEqual, 1600)
			})

			Convey("Then the watermark does not advance", func() {
				So(store.AppliedThrough(), ShouldEqual, 0)
			})

			Convey("And replaying the identical batch does not double-apply", func() {
				err := store.UpdateThrough(1, mixed)
				So(errors.Is(err, rating.ErrUnknownTeam), ShouldBeTrue)
				bravos, _ := store.Rating("Bravos")
				So(bravos, ShouldEqual, 1400)
			})

			Convey("And the corrected batch still applies cleanly", func() {
				So(store.UpdateThrough(1, results), ShouldBeNil)
				bravos, _ := store.Rating("Bravos")
				So(bravos, ShouldBeGreaterThan, 1400)
				So(store.AppliedThrough(), ShouldEqual, 1)
			})
		})

		Convey("When the week is non-positive", func() {
			err := store.UpdateThrough(0, nil)

			Convey("Then it fails with ErrInvalidWeek", func() {
				So(errors.Is(err, model.ErrInvalidWeek), ShouldBeTrue)
			})
		})
	})

	Convey("Given a favorite that wins as expected", t, func() {
		store := rating.NewStore(seedRatings(), rating.WithHomeAdvantage(0))
		err := store.UpdateThrough(1, []model.GameResult{
			{Week: 1, Home: "Alphas", Away: "Bravos", HomeScore: 28, AwayScore: 14},
		})
		So(err, ShouldBeNil)

		Convey("Then the move is smaller than the K factor", func() {
			alphas, _ := store.Rating("Alphas")
			gain := alphas - 1600
			So(gain, ShouldBeGreaterThan, 0)
			So(gain, ShouldBeLessThan, 20*(1-rating.WinProbability(200, 400))+1e-9)
			So(math.IsNaN(gain), ShouldBeFalse)
		})
	})
}
