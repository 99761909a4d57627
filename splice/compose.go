// Package splice merges calibrated sections into one continuous composite
// record ordered by age. Per age interval exactly one section contributes;
// values are never interpolated or blended across a section boundary, since
// raw values from different records are not directly comparable.
package splice

import (
	"fmt"
	"sort"

	"github.com/Darkarion17/paleochron/chron"
)

// Coverage assigns an explicit age interval to a section ID. When supplied,
// intervals are honored verbatim and must not overlap.
type Coverage map[string]chron.AgeRange

// Compose builds the composite record. Every input section must already
// carry ages; a section with none yields chron.ErrNoAgeData naming it. With
// a nil coverage, the union of the sections' age ranges is partitioned and
// each interval goes to the highest-resolution section covering it (smallest
// median age gap, exact ties to the lexically smallest section ID). Output
// ages are strictly increasing; boundaries fall between existing samples and
// no synthetic boundary sample is ever inserted.
func Compose(sections []*chron.Section, coverage Coverage) ([]chron.CompositeSample, error) {
	for _, sec := range sections {
		if !sec.HasAges() {
			return nil, &chron.SectionError{Kind: chron.ErrNoAgeData, SectionID: sec.ID}
		}
	}
	if len(sections) == 0 {
		return nil, nil
	}

	var plan []interval
	var err error
	if coverage != nil {
		plan, err = explicitIntervals(sections, coverage)
	} else {
		plan = defaultIntervals(sections)
	}
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*chron.Section, len(sections))
	for _, sec := range sections {
		byID[sec.ID] = sec
	}

	out := make([]chron.CompositeSample, 0, 128)
	for k, iv := range plan {
		// An interval keeps its own upper end unless the next interval
		// starts exactly there, in which case the boundary sample belongs
		// to the later interval.
		includeEnd := k == len(plan)-1 || plan[k+1].rng.Min != iv.rng.Max
		out = append(out, emit(byID[iv.sectionID], iv.rng, includeEnd)...)
	}

	return out, nil
}

// ComposeAvailable is the partial-success variant for workflow callers: it
// drops sections lacking ages, reports them, and composes the rest. The
// all-or-nothing contract of Compose is unchanged.
func ComposeAvailable(sections []*chron.Section, coverage Coverage) (composite []chron.CompositeSample, excluded []string, err error) {
	usable := make([]*chron.Section, 0, len(sections))
	for _, sec := range sections {
		if sec.HasAges() {
			usable = append(usable, sec)
			continue
		}
		excluded = append(excluded, sec.ID)
	}

	composite, err = Compose(usable, coverage)

	return composite, excluded, err
}

// emit collects one section's calibrated samples inside rng, ordered and
// strictly deduplicated by age. With includeEnd false the interval is
// half-open on the high side, so a sample sitting exactly on a boundary
// shared with the next interval is claimed by exactly one of them.
func emit(sec *chron.Section, rng chron.AgeRange, includeEnd bool) []chron.CompositeSample {
	type aged struct {
		age   float64
		depth float64
		idx   int
	}

	picks := make([]aged, 0, len(sec.Samples))
	for i, samp := range sec.Samples {
		if !samp.Age.Valid {
			continue
		}
		a := samp.Age.Float64
		if a < rng.Min || a > rng.Max || (a == rng.Max && !includeEnd) {
			continue
		}
		d := 0.0
		if samp.Depth.Valid {
			d = samp.Depth.Float64
		}
		picks = append(picks, aged{age: a, depth: d, idx: i})
	}

	sort.Slice(picks, func(a, b int) bool {
		if picks[a].age != picks[b].age {
			return picks[a].age < picks[b].age
		}
		return picks[a].depth < picks[b].depth
	})

	out := make([]chron.CompositeSample, 0, len(picks))
	lastAge := 0.0
	for n, p := range picks {
		if n > 0 && p.age == lastAge {
			continue
		}
		lastAge = p.age

		values := make(map[chron.ProxyKey]float64, len(sec.Samples[p.idx].Proxies))
		for k, v := range sec.Samples[p.idx].Proxies {
			values[k] = v
		}
		out = append(out, chron.CompositeSample{Age: p.age, SectionID: sec.ID, Values: values})
	}

	return out
}

// explicitIntervals validates caller-specified coverage and orders it by age.
func explicitIntervals(sections []*chron.Section, coverage Coverage) ([]interval, error) {
	byID := make(map[string]*chron.Section, len(sections))
	for _, sec := range sections {
		byID[sec.ID] = sec
	}

	plan := make([]interval, 0, len(coverage))
	for id, rng := range coverage {
		if _, known := byID[id]; !known {
			return nil, fmt.Errorf("coverage names unknown section %s", id)
		}
		if rng.Min > rng.Max {
			return nil, fmt.Errorf("coverage for section %s is inverted: [%g, %g]", id, rng.Min, rng.Max)
		}
		plan = append(plan, interval{rng: rng, sectionID: id})
	}
	sort.Slice(plan, func(a, b int) bool {
		if plan[a].rng.Min != plan[b].rng.Min {
			return plan[a].rng.Min < plan[b].rng.Min
		}
		return plan[a].sectionID < plan[b].sectionID
	})

	for i := 0; i < len(plan); i++ {
		for j := i + 1; j < len(plan); j++ {
			if plan[i].rng.Overlaps(plan[j].rng) {
				return nil, &chron.CoverageError{
					SectionA: plan[i].sectionID, RangeA: plan[i].rng,
					SectionB: plan[j].sectionID, RangeB: plan[j].rng,
				}
			}
		}
	}

	return plan, nil
}
