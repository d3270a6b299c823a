package tiercheck

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func defaultTiers() []Tier {
	ceilings := []float64{5, 10, 20, 30, 45, 60, 80, 90, 99, 100}
	out := make([]Tier, len(ceilings))
	for i, c := range ceilings {
		out[i] = Tier{ID: i + 1, Name: string(rune('A' + i)), PercentileCeiling: c, RewardShare: float64(10 - i)}
	}
	return out
}

// correct builds the response a conforming service would return.
func correct(set ScoreSet, tiers []Tier) map[string]Result {
	ranks := expectedRanks(set)
	out := make(map[string]Result, len(set))
	for _, e := range set {
		r := ranks[e.Handle]
		pct := float64(r*100) / float64(len(set))
		t := selectTier(tiers, pct)
		out[e.Handle] = Result{Score: e.Score, Rank: r, Percentile: pct, TierID: t.ID, TierName: t.Name, RewardShare: t.RewardShare}
	}
	return out
}

func TestVerify(t *testing.T) {
	Convey("Given a score set with ties", t, func() {
		tiers := defaultTiers()
		set := ScoreSet{{"a", 100}, {"b", 50}, {"c", 50}}

		Convey("When the response is correct", func() {
			res := correct(set, tiers)

			Convey("Then no property is violated", func() {
				So(Verify(set, res, tiers), ShouldBeEmpty)
				So(res["b"].Rank, ShouldEqual, 2)
				So(res["c"].Percentile, ShouldEqual, 100.0)
			})
		})

		Convey("When the tie is broken the wrong way", func() {
			res := correct(set, tiers)
			b, c := res["b"], res["c"]
			b.Rank, c.Rank = 3, 2
			res["b"], res["c"] = b, c

			Convey("Then the rank violation is reported", func() {
				errs := Verify(set, res, tiers)
				So(errs, ShouldNotBeEmpty)
				So(errs[0].Error(), ShouldContainSubstring, "rank 3, want 2")
			})
		})

		Convey("When a rank is shared", func() {
			res := correct(set, tiers)
			c := res["c"]
			c.Rank = 2
			res["c"] = c

			Convey("Then the duplicate rank is reported", func() {
				So(Verify(set, res, tiers), ShouldNotBeEmpty)
			})
		})

		Convey("When a handle is missing", func() {
			res := correct(set, tiers)
			delete(res, "a")

			Convey("Then both the count and the handle are reported", func() {
				So(len(Verify(set, res, tiers)), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When the tier is wrong", func() {
			res := correct(set, tiers)
			a := res["a"]
			a.TierID = 1
			res["a"] = a

			Convey("Then the tier violation is reported", func() {
				So(Verify(set, res, tiers), ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given an empty set", t, func() {
		Convey("Then an empty response is correct", func() {
			So(Verify(nil, map[string]Result{}, defaultTiers()), ShouldBeEmpty)
		})
	})

	Convey("Given a percentile exactly on a ceiling", t, func() {
		So(selectTier(defaultTiers(), 30).ID, ShouldEqual, 4)
		So(selectTier(defaultTiers(), 30.0001).ID, ShouldEqual, 5)
		So(selectTier(defaultTiers(), 101).ID, ShouldEqual, 10)
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a, err := NewGenerator(42).Sets(8, 20, 3)
		So(err, ShouldBeNil)
		b, err := NewGenerator(42).Sets(8, 20, 3)
		So(err, ShouldBeNil)

		Convey("Then they produce identical sets", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then handles are unique and scores in range", func() {
			seen := make(map[string]struct{})
			for _, set := range a {
				So(len(set), ShouldBeLessThanOrEqualTo, 20)
				for _, e := range set {
					So(e.Score, ShouldBeBetweenOrEqual, int64(0), int64(3))
					_, dup := seen[e.Handle]
					So(dup, ShouldBeFalse)
					seen[e.Handle] = struct{}{}
				}
			}
			So(len(a[0]), ShouldEqual, 20)
		})
	})

	Convey("Given a score set", t, func() {
		set := ScoreSet{{"z", 1}, {"a", 2}, {`q"uote`, 0}}

		Convey("Then it marshals as an object in slice order", func() {
			b, err := json.Marshal(set)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"z":1,"a":2,"q\"uote":0}`)
		})
	})

	Convey("Given a negative size", t, func() {
		_, err := NewGenerator(1).Set(-1, 10)
		So(err, ShouldNotBeNil)
	})
}
