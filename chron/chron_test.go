package chron

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func testSection(id string, depths ...float64) *Section {
	sec := &Section{ID: id}
	for _, d := range depths {
		sec.Samples = append(sec.Samples, Sample{Depth: null.FloatFrom(d)})
	}

	return sec
}

func TestValidateTiePoints(t *testing.T) {
	sec := testSection("X", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	for _, v := range []struct {
		name string
		tps  []TiePoint
		kind error
	}{
		{"valid pair", []TiePoint{{SectionID: "X", Depth: 0, Age: 0}, {SectionID: "X", Depth: 10, Age: 100}}, nil},
		{"valid unsorted input", []TiePoint{{SectionID: "X", Depth: 10, Age: 100}, {SectionID: "X", Depth: 0, Age: 0}}, nil},
		{"decreasing age with depth", []TiePoint{{SectionID: "X", Depth: 10, Age: 5}, {SectionID: "X", Depth: 5, Age: 10}}, ErrNonMonotonicTiePoints},
		{"equal ages", []TiePoint{{SectionID: "X", Depth: 2, Age: 7}, {SectionID: "X", Depth: 8, Age: 7}}, ErrNonMonotonicTiePoints},
		{"duplicate depth", []TiePoint{{SectionID: "X", Depth: 3, Age: 1}, {SectionID: "X", Depth: 3, Age: 2}}, ErrNonMonotonicTiePoints},
		{"depth below range", []TiePoint{{SectionID: "X", Depth: -1, Age: 0}, {SectionID: "X", Depth: 10, Age: 100}}, ErrInvalidDepthRange},
		{"depth above range", []TiePoint{{SectionID: "X", Depth: 0, Age: 0}, {SectionID: "X", Depth: 11, Age: 100}}, ErrInvalidDepthRange},
	} {
		err := ValidateTiePoints(sec, v.tps)
		if v.kind == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", v.name, err)
			}
			continue
		}
		if !errors.Is(err, v.kind) {
			t.Fatalf("%s: got %v, want kind %v", v.name, err, v.kind)
		}
		if !strings.Contains(err.Error(), "X") {
			t.Fatalf("%s: error %q does not name the section", v.name, err.Error())
		}
	}
}

func TestValidateTiePointsNamesOffendingPair(t *testing.T) {
	sec := testSection("core7", 0, 5, 10)

	err := ValidateTiePoints(sec, []TiePoint{
		{SectionID: "core7", Depth: 10, Age: 5},
		{SectionID: "core7", Depth: 5, Age: 10},
	})

	var tpe *TiePointError
	if !errors.As(err, &tpe) {
		t.Fatalf("expected a *TiePointError, got %v", err)
	}
	if tpe.First.Depth != 5 || tpe.Second.Depth != 10 {
		t.Fatalf("offending pair misidentified: %+v", tpe)
	}
}

func TestAgeRangeOverlaps(t *testing.T) {
	for _, v := range []struct {
		a, b     AgeRange
		overlaps bool
	}{
		{AgeRange{0, 10}, AgeRange{5, 15}, true},
		{AgeRange{5, 15}, AgeRange{0, 10}, true},
		{AgeRange{0, 10}, AgeRange{10, 20}, false}, // touching is not overlap
		{AgeRange{0, 10}, AgeRange{20, 30}, false},
		{AgeRange{0, 30}, AgeRange{10, 20}, true},
	} {
		if got := v.a.Overlaps(v.b); got != v.overlaps {
			t.Fatalf("Overlaps(%+v, %+v) = %v, want %v", v.a, v.b, got, v.overlaps)
		}
	}
}

func TestProxySeriesFiltersAndSorts(t *testing.T) {
	sec := &Section{ID: "X", Samples: []Sample{
		{Depth: null.FloatFrom(3), Proxies: map[ProxyKey]float64{"d18O": 1.3}},
		{Depth: null.FloatFrom(1), Proxies: map[ProxyKey]float64{"d18O": 1.1}},
		{Depth: null.FloatFrom(2)},                   // proxy missing
		{Proxies: map[ProxyKey]float64{"d18O": 9.9}}, // depth missing
	}}

	series := sec.ProxySeries("d18O")
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d: %+v", len(series), series)
	}
	if series[0].Depth != 1 || series[1].Depth != 3 {
		t.Fatalf("series not depth-sorted: %+v", series)
	}
}

func TestDepthRange(t *testing.T) {
	sec := testSection("X", 4, 1, 9)
	min, max, ok := sec.DepthRange()
	if !ok || min != 1 || max != 9 {
		t.Fatalf("DepthRange = (%g, %g, %v), want (1, 9, true)", min, max, ok)
	}

	empty := &Section{ID: "E", Samples: []Sample{{}}}
	if _, _, ok := empty.DepthRange(); ok {
		t.Fatal("expected ok=false for a section without depths")
	}
}
