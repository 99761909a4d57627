package splice

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/Darkarion17/paleochron/chron"
)

// interval is one planned slice of the composite: an age range served by a
// single section.
type interval struct {
	rng       chron.AgeRange
	sectionID string
}

// defaultIntervals partitions the union of the sections' age ranges at every
// range endpoint and hands each resulting interval to the section with the
// best local resolution there. Resolution is the median gap between
// consecutive sample ages inside the interval (falling back to the
// section-wide median when the interval holds too few samples); the smallest
// gap wins, with exact ties going to the lexically smallest section ID.
// Adjacent intervals won by the same section are merged.
func defaultIntervals(sections []*chron.Section) []interval {
	type span struct {
		sec  *chron.Section
		rng  chron.AgeRange
		ages []float64
	}

	spans := make([]span, 0, len(sections))
	bounds := make([]float64, 0, 2*len(sections))
	for _, sec := range sections {
		rng, ok := sec.AgeRange()
		if !ok {
			continue
		}
		ages := make([]float64, 0, len(sec.Samples))
		for _, samp := range sec.Samples {
			if samp.Age.Valid {
				ages = append(ages, samp.Age.Float64)
			}
		}
		sort.Float64s(ages)
		spans = append(spans, span{sec: sec, rng: rng, ages: ages})
		bounds = append(bounds, rng.Min, rng.Max)
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Float64s(bounds)
	uniq := bounds[:0]
	for i, b := range bounds {
		if i == 0 || b != uniq[len(uniq)-1] {
			uniq = append(uniq, b)
		}
	}

	plan := make([]interval, 0, len(uniq))
	for i := 1; i < len(uniq); i++ {
		lo, hi := uniq[i-1], uniq[i]

		winner := ""
		best := math.Inf(1)
		for _, sp := range spans {
			if sp.rng.Min > lo || sp.rng.Max < hi {
				continue
			}
			score := medianGap(sp.ages, lo, hi)
			if score < best || (score == best && (winner == "" || sp.sec.ID < winner)) {
				best = score
				winner = sp.sec.ID
			}
		}
		if winner == "" {
			continue
		}

		if n := len(plan); n > 0 && plan[n-1].sectionID == winner && plan[n-1].rng.Max == lo {
			plan[n-1].rng.Max = hi
			continue
		}
		plan = append(plan, interval{rng: chron.AgeRange{Min: lo, Max: hi}, sectionID: winner})
	}

	return plan
}

// medianGap scores a section's resolution inside [lo, hi]: the median
// difference between consecutive sorted sample ages there. Sections with
// too few local samples fall back to their overall median gap; a section
// with fewer than two aged samples anywhere scores +Inf.
func medianGap(sortedAges []float64, lo, hi float64) float64 {
	local := make([]float64, 0, len(sortedAges))
	for _, a := range sortedAges {
		if a >= lo && a <= hi {
			local = append(local, a)
		}
	}
	if len(local) < 2 {
		local = sortedAges
	}
	if len(local) < 2 {
		return math.Inf(1)
	}

	gaps := make([]float64, 0, len(local)-1)
	for i := 1; i < len(local); i++ {
		gaps = append(gaps, local[i]-local[i-1])
	}

	med, err := stats.Median(stats.Float64Data(gaps))
	if err != nil {
		return math.Inf(1)
	}

	return med
}
