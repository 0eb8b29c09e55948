package situation_test

import (
	"errors"
	"testing"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/situation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAdjuster_Adjust(t *testing.T) {
	Convey("Given the default adjuster", t, func() {
		adj := situation.New()

		Convey("When a game has no situational context", func() {
			g := model.Game{Week: 1, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7}

			Convey("Then both sides get a zero delta", func() {
				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 0)

				da, err := adj.Adjust(g, "Bravos")
				So(err, ShouldBeNil)
				So(da, ShouldEqual, 0)
			})
		})

		Convey("When the home team comes off a bye", func() {
			g := model.Game{Week: 5, Home: "Alphas", Away: "Bravos", RestHome: 14, RestAway: 7}

			Convey("Then rest credits the home side and debits the road side", func() {
				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 35) // 7 extra days at 5 points each

				da, err := adj.Adjust(g, "Bravos")
				So(err, ShouldBeNil)
				So(da, ShouldEqual, -35)
			})
		})

		Convey("When the road team travels a long way", func() {
			g := model.Game{Week: 2, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7, TravelKM: 4000}

			Convey("Then only the road side pays the travel charge", func() {
				da, err := adj.Adjust(g, "Bravos")
				So(err, ShouldBeNil)
				So(da, ShouldEqual, -8) // 4 travel units at 2 points each

				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 0)
			})
		})

		Convey("When the road team crosses time zones", func() {
			east := model.Game{Week: 3, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7, TZDelta: 3}
			west := model.Game{Week: 4, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7, TZDelta: -3}

			Convey("Then the charge depends on magnitude, not direction", func() {
				de, err := adj.Adjust(east, "Bravos")
				So(err, ShouldBeNil)
				So(de, ShouldEqual, -18)

				dw, err := adj.Adjust(west, "Bravos")
				So(err, ShouldBeNil)
				So(dw, ShouldEqual, -18)
			})
		})

		Convey("When a high-altitude host welcomes a sea-level visitor", func() {
			g := model.Game{Week: 6, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7, HomeAlt: 1609, AwayAlt: 5}

			Convey("Then the host gets the flat altitude bonus", func() {
				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 25)

				da, err := adj.Adjust(g, "Bravos")
				So(err, ShouldBeNil)
				So(da, ShouldEqual, 0)
			})
		})

		Convey("When both venues sit at altitude", func() {
			g := model.Game{Week: 7, Home: "Alphas", Away: "Bravos", RestHome: 7, RestAway: 7, HomeAlt: 1609, AwayAlt: 1400}

			Convey("Then an acclimated visitor cancels the bonus", func() {
				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 0)
			})
		})

		Convey("When every component applies at once", func() {
			g := model.Game{
				Week: 8, Home: "Alphas", Away: "Bravos",
				RestHome: 10, RestAway: 6,
				TravelKM: 2500, TZDelta: -2,
				HomeAlt: 1609, AwayAlt: 0,
			}

			Convey("Then deltas sum the components per side", func() {
				dh, err := adj.Adjust(g, "Alphas")
				So(err, ShouldBeNil)
				So(dh, ShouldEqual, 4*5+25)

				da, err := adj.Adjust(g, "Bravos")
				So(err, ShouldBeNil)
				So(da, ShouldEqual, -4*5-2.5*2-2*6)
			})
		})

		Convey("When the team is not in the game", func() {
			g := model.Game{Week: 1, Home: "Alphas", Away: "Bravos"}
			_, err := adj.Adjust(g, "Comets")

			Convey("Then it fails with ErrNotInGame", func() {
				So(errors.Is(err, situation.ErrNotInGame), ShouldBeTrue)
			})
		})
	})

	Convey("Given custom weights", t, func() {
		adj := situation.New(
			situation.WithRestWeight(10),
			situation.WithTravelWeight(0),
			situation.WithTimeZoneWeight(0),
			situation.WithAltitudeWeight(50),
		)
		g := model.Game{
			Week: 1, Home: "Alphas", Away: "Bravos",
			RestHome: 8, RestAway: 7,
			TravelKM: 3000, TZDelta: 2,
			HomeAlt: 2000, AwayAlt: 0,
		}

		Convey("Then the overridden weights drive the delta", func() {
			dh, err := adj.Adjust(g, "Alphas")
			So(err, ShouldBeNil)
			So(dh, ShouldEqual, 10+50)

			da, err := adj.Adjust(g, "Bravos")
			So(err, ShouldBeNil)
			So(da, ShouldEqual, -10)
		})
	})
}
