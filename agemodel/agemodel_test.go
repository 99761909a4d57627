package agemodel

import (
	"errors"
	"math"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/Darkarion17/paleochron/chron"
)

// rampSection builds a section sampled every 0.5m from 0 to 10m whose proxy
// is flat at 0 until 4.5m, ramps to 1 by 5.5m, and stays flat after: all of
// the interval's proxy variation is concentrated around 5m.
func rampSection() *chron.Section {
	sec := &chron.Section{ID: "X"}
	for d := 0.0; d <= 10.0+1e-9; d += 0.5 {
		v := 0.0
		switch {
		case d >= 5.5:
			v = 1
		case d > 4.5:
			v = d - 4.5
		}
		sec.Samples = append(sec.Samples, chron.Sample{
			Depth:   null.FloatFrom(d),
			Proxies: map[chron.ProxyKey]float64{"d18O": v},
		})
	}

	return sec
}

func tiePair(sec string) []chron.TiePoint {
	return []chron.TiePoint{
		{SectionID: sec, Depth: 0, Age: 0},
		{SectionID: sec, Depth: 10, Age: 100},
	}
}

func TestBuildRejectsInsufficientTiePoints(t *testing.T) {
	sec := rampSection()

	for _, tps := range [][]chron.TiePoint{
		nil,
		{{SectionID: "X", Depth: 5, Age: 50}},
	} {
		if _, err := Build(sec, tps, ""); !errors.Is(err, chron.ErrInsufficientTiePoints) {
			t.Fatalf("Build with %d tie points: got %v, want ErrInsufficientTiePoints", len(tps), err)
		}
	}
}

func TestBuildRejectsNonMonotonicTiePoints(t *testing.T) {
	sec := rampSection()

	_, err := Build(sec, []chron.TiePoint{
		{SectionID: "X", Depth: 10, Age: 5},
		{SectionID: "X", Depth: 5, Age: 10},
	}, "")
	if !errors.Is(err, chron.ErrNonMonotonicTiePoints) {
		t.Fatalf("got %v, want ErrNonMonotonicTiePoints", err)
	}
}

func TestBuildRejectsOutOfRangeTiePoint(t *testing.T) {
	sec := rampSection()

	_, err := Build(sec, []chron.TiePoint{
		{SectionID: "X", Depth: 0, Age: 0},
		{SectionID: "X", Depth: 12, Age: 100},
	}, "")
	if !errors.Is(err, chron.ErrInvalidDepthRange) {
		t.Fatalf("got %v, want ErrInvalidDepthRange", err)
	}
}

func TestModelReproducesTiePointsExactly(t *testing.T) {
	sec := rampSection()
	tps := []chron.TiePoint{
		{SectionID: "X", Depth: 0, Age: 0},
		{SectionID: "X", Depth: 4, Age: 31},
		{SectionID: "X", Depth: 10, Age: 100},
	}

	for _, proxy := range []chron.ProxyKey{"", "d18O"} {
		m, err := Build(sec, tps, proxy)
		if err != nil {
			t.Fatalf("proxy %q: %v", proxy, err)
		}
		for _, tp := range tps {
			age, extrapolated := m.AgeAt(tp.Depth)
			if age != tp.Age {
				t.Fatalf("proxy %q: AgeAt(%g) = %g, want exactly %g", proxy, tp.Depth, age, tp.Age)
			}
			if extrapolated {
				t.Fatalf("proxy %q: tie point at %g flagged extrapolated", proxy, tp.Depth)
			}
		}
	}
}

func TestModelMonotonicOverDomain(t *testing.T) {
	sec := rampSection()
	tps := []chron.TiePoint{
		{SectionID: "X", Depth: 0, Age: 0},
		{SectionID: "X", Depth: 3, Age: 12},
		{SectionID: "X", Depth: 7, Age: 64},
		{SectionID: "X", Depth: 10, Age: 100},
	}

	for _, proxy := range []chron.ProxyKey{"", "d18O"} {
		m, err := Build(sec, tps, proxy)
		if err != nil {
			t.Fatalf("proxy %q: %v", proxy, err)
		}

		prev := math.Inf(-1)
		for d := -2.0; d <= 12.0+1e-9; d += 0.01 {
			age, _ := m.AgeAt(d)
			if age < prev {
				t.Fatalf("proxy %q: model inverts at depth %g: %g < %g", proxy, d, age, prev)
			}
			prev = age
		}

		// Strictly increasing across tie points.
		for i := 1; i < len(tps); i++ {
			a0, _ := m.AgeAt(tps[i-1].Depth)
			a1, _ := m.AgeAt(tps[i].Depth)
			if a1 <= a0 {
				t.Fatalf("proxy %q: not strictly increasing between tie points %d and %d", proxy, i-1, i)
			}
		}
	}
}

func TestProxyReweightingBendsAwayFromLinear(t *testing.T) {
	sec := rampSection()

	m, err := Build(sec, tiePair("X"), "d18O")
	if err != nil {
		t.Fatal(err)
	}

	// With all proxy variation concentrated at ~5m, ages on either side of
	// the transition should sit far from the naive linear interpolation
	// while the anchors stay exact.
	for _, v := range []struct {
		depth  float64
		linear float64
	}{
		{4.5, 45},
		{5.5, 55},
	} {
		age, _ := m.AgeAt(v.depth)
		if math.Abs(age-v.linear) < 15 {
			t.Fatalf("AgeAt(%g) = %g, too close to linear %g for a proxy-weighted model", v.depth, age, v.linear)
		}
	}

	if age, _ := m.AgeAt(0); age != 0 {
		t.Fatalf("AgeAt(0) = %g, want exactly 0", age)
	}
	if age, _ := m.AgeAt(10); age != 100 {
		t.Fatalf("AgeAt(10) = %g, want exactly 100", age)
	}
}

func TestExtrapolationUsesTieSlopeAndIsFlagged(t *testing.T) {
	sec := rampSection()

	m, err := Build(sec, tiePair("X"), "")
	if err != nil {
		t.Fatal(err)
	}

	age, extrapolated := m.AgeAt(-1)
	if !extrapolated {
		t.Fatal("depth below the tie-point range not flagged extrapolated")
	}
	if want := -10.0; math.Abs(age-want) > 1e-9 {
		t.Fatalf("AgeAt(-1) = %g, want %g (linear continuation)", age, want)
	}

	age, extrapolated = m.AgeAt(11)
	if !extrapolated {
		t.Fatal("depth above the tie-point range not flagged extrapolated")
	}
	if want := 110.0; math.Abs(age-want) > 1e-9 {
		t.Fatalf("AgeAt(11) = %g, want %g (linear continuation)", age, want)
	}

	if _, extrapolated := m.AgeAt(5); extrapolated {
		t.Fatal("in-range depth flagged extrapolated")
	}
}

func TestApplyStampsAgesAndSkipsDepthlessSamples(t *testing.T) {
	sec := rampSection()
	sec.Samples = append(sec.Samples, chron.Sample{Proxies: map[chron.ProxyKey]float64{"d18O": 0.5}})

	m, err := Build(sec, tiePair("X"), "")
	if err != nil {
		t.Fatal(err)
	}
	m.Apply(sec)

	for _, samp := range sec.Samples {
		if samp.Depth.Valid && !samp.Age.Valid {
			t.Fatalf("sample at depth %g left uncalibrated", samp.Depth.Float64)
		}
		if !samp.Depth.Valid && samp.Age.Valid {
			t.Fatal("depthless sample was assigned an age")
		}
	}
}
