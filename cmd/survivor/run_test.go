package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEntries(t *testing.T) {
	Convey("Given entry inputs", t, func() {
		Convey("When no picks file is given", func() {
			entries, err := loadEntries("", 3)

			Convey("Then it should build fresh entries", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Committed, ShouldBeNil)
			})
		})

		Convey("When the entry count is non-positive", func() {
			_, err := loadEntries("", 0)

			Convey("Then it should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a picks file is given", func() {
			path := writeTempFile(t, "picks.yaml", `
entries:
  - committed:
      1: Denver Broncos
      2: Buffalo Bills
  - committed: {}
`)
			entries, err := loadEntries(path, 0)

			Convey("Then it should parse committed picks per entry", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Committed[1], ShouldEqual, "Denver Broncos")
				So(entries[0].Committed[2], ShouldEqual, "Buffalo Bills")
				So(entries[1].Committed, ShouldBeEmpty)
			})
		})

		Convey("When the picks file is empty", func() {
			path := writeTempFile(t, "picks.yaml", "entries: []\n")
			_, err := loadEntries(path, 0)

			Convey("Then it should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the picks file does not exist", func() {
			_, err := loadEntries("/no/such/picks.yaml", 0)

			Convey("Then it should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoadResults(t *testing.T) {
	Convey("Given result inputs", t, func() {
		Convey("When a valid results file is given", func() {
			path := writeTempFile(t, "results.yaml", `
results:
  - {week: 1, home: Philadelphia Eagles, away: Dallas Cowboys, home_score: 24, away_score: 20}
  - {week: 1, home: Denver Broncos, away: Tennessee Titans, home_score: 13, away_score: 16}
`)
			results, err := loadResults(path)

			Convey("Then it should parse every result", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 2)
				So(results[0].Home, ShouldEqual, "Philadelphia Eagles")
				So(results[0].HomeWon(), ShouldBeTrue)
				So(results[1].HomeWon(), ShouldBeFalse)
			})
		})

		Convey("When a result is missing a team", func() {
			path := writeTempFile(t, "results.yaml", `
results:
  - {week: 1, home: "", away: Dallas Cowboys}
`)
			_, err := loadResults(path)

			Convey("Then it should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the results file is empty", func() {
			path := writeTempFile(t, "results.yaml", "results: []\n")
			_, err := loadResults(path)

			Convey("Then it should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
