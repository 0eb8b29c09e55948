package popularity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/popularity"
	"github.com/okian/survivor/internal/domain/winprob"
	. "github.com/smartystreets/goconvey/convey"
)

// stubProbs returns a fixed home win probability per home team.
type stubProbs struct {
	pHome map[string]float64
}

func (s *stubProbs) ForGame(_ context.Context, game model.Game, team string) (float64, error) {
	p, ok := s.pHome[game.Home]
	if !ok {
		p = 0.5
	}
	if team == game.Away {
		return 1 - p, nil
	}
	return p, nil
}

func threeGameWeek(t *testing.T) *model.Schedule {
	t.Helper()
	day := time.Date(2025, 9, 7, 13, 0, 0, 0, time.UTC)
	sched, err := model.NewSchedule([]model.Game{
		{Week: 1, Date: day, Home: "Alphas", Away: "Bravos"},
		{Week: 1, Date: day, Home: "Comets", Away: "Drakes"},
		{Week: 1, Date: day, Home: "Eagles", Away: "Foxes"},
	})
	if err != nil {
		t.Fatalf("build schedule: %v", err)
	}
	return sched
}

func TestModel_Week(t *testing.T) {
	ctx := context.Background()

	Convey("Given three games with distinct favorites", t, func() {
		probs := &stubProbs{pHome: map[string]float64{
			"Alphas": 0.80, // strongest favorite
			"Comets": 0.30, // road favorite at 0.70
			"Eagles": 0.55, // weakest favorite
		}}
		m := popularity.New(probs, threeGameWeek(t))

		byTeam, err := m.Week(ctx, 1)
		So(err, ShouldBeNil)

		Convey("Then popularity maps favorite rank linearly onto the bounds", func() {
			So(byTeam["Alphas"], ShouldAlmostEqual, 0.40, 1e-9)
			So(byTeam["Drakes"], ShouldAlmostEqual, 0.225, 1e-9)
			So(byTeam["Eagles"], ShouldAlmostEqual, 0.05, 1e-9)
		})

		Convey("Then both sides of a game share its popularity", func() {
			So(byTeam["Bravos"], ShouldAlmostEqual, byTeam["Alphas"], 1e-12)
			So(byTeam["Comets"], ShouldAlmostEqual, byTeam["Drakes"], 1e-12)
		})

		Convey("Then every playing team has an estimate", func() {
			So(byTeam, ShouldHaveLength, 6)
		})
	})

	Convey("Given a single-game week", t, func() {
		day := time.Date(2025, 9, 7, 13, 0, 0, 0, time.UTC)
		sched, err := model.NewSchedule([]model.Game{
			{Week: 1, Date: day, Home: "Alphas", Away: "Bravos"},
		})
		So(err, ShouldBeNil)
		m := popularity.New(&stubProbs{}, sched)

		Convey("Then the lone game draws the full share", func() {
			byTeam, err := m.Week(ctx, 1)
			So(err, ShouldBeNil)
			So(byTeam["Alphas"], ShouldAlmostEqual, 0.40, 1e-12)
		})
	})

	Convey("Given custom bounds", t, func() {
		probs := &stubProbs{pHome: map[string]float64{"Alphas": 0.9, "Comets": 0.6, "Eagles": 0.55}}
		m := popularity.New(probs, threeGameWeek(t), popularity.WithBounds(0.10, 0.50))

		Convey("Then the mapping uses them", func() {
			byTeam, err := m.Week(ctx, 1)
			So(err, ShouldBeNil)
			So(byTeam["Alphas"], ShouldAlmostEqual, 0.50, 1e-9)
			So(byTeam["Eagles"], ShouldAlmostEqual, 0.10, 1e-9)
		})
	})

	Convey("Given observed pick data", t, func() {
		probs := &stubProbs{pHome: map[string]float64{"Alphas": 0.8, "Comets": 0.6, "Eagles": 0.55}}
		observed := map[int]map[string]float64{
			1: {
				"Alphas":   0.62,  // overrides the heuristic
				"Eagles":   1.40,  // implausible; clamped
				"Phantoms": 0.10,  // not playing; dropped
			},
		}
		m := popularity.New(probs, threeGameWeek(t), popularity.WithObserved(observed))

		byTeam, err := m.Week(ctx, 1)
		So(err, ShouldBeNil)

		Convey("Then observed values override the heuristic verbatim", func() {
			So(byTeam["Alphas"], ShouldAlmostEqual, 0.62, 1e-12)
		})

		Convey("Then out-of-range fractions are clamped", func() {
			So(byTeam["Eagles"], ShouldAlmostEqual, 1.0, 1e-12)
		})

		Convey("Then teams not playing that week are ignored", func() {
			_, present := byTeam["Phantoms"]
			So(present, ShouldBeFalse)
		})

		Convey("Then unobserved teams keep the heuristic value", func() {
			So(byTeam["Comets"], ShouldAlmostEqual, 0.225, 1e-9)
		})
	})

	Convey("Given a week outside the season", t, func() {
		m := popularity.New(&stubProbs{}, threeGameWeek(t))

		Convey("Then it fails with ErrInvalidWeek", func() {
			_, err := m.Week(ctx, 4)
			So(errors.Is(err, model.ErrInvalidWeek), ShouldBeTrue)
		})
	})
}

func TestModel_Popularity(t *testing.T) {
	ctx := context.Background()

	Convey("Given the week distribution", t, func() {
		probs := &stubProbs{pHome: map[string]float64{"Alphas": 0.8, "Comets": 0.6, "Eagles": 0.55}}
		m := popularity.New(probs, threeGameWeek(t))

		Convey("Then a single team's share matches the week map", func() {
			pop, err := m.Popularity(ctx, "Alphas", 1)
			So(err, ShouldBeNil)
			So(pop, ShouldAlmostEqual, 0.40, 1e-9)
		})

		Convey("Then a team on bye fails with ErrMissingGame", func() {
			_, err := m.Popularity(ctx, "Phantoms", 1)
			So(errors.Is(err, winprob.ErrMissingGame), ShouldBeTrue)
		})
	})
}
