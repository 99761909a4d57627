// Package chron holds the shared data model for sediment-core chronologies:
// depth-indexed samples, user-asserted tie points, and the composite record
// produced by splicing calibrated sections together.
package chron

import (
	"sort"

	"gopkg.in/guregu/null.v3"
)

// ProxyKey names a measured proxy (e.g. "d18O", "MS") on a sample.
type ProxyKey string

// Sample is one depth-indexed measurement row within a section. Proxies maps
// proxy names to measured values; a missing key means the proxy was not
// measured at this depth. Age stays invalid until the owning section has been
// calibrated through an age model.
type Sample struct {
	Depth        null.Float
	Proxies      map[ProxyKey]float64
	Age          null.Float
	Extrapolated bool
}

// Section is one sediment record: an identifier plus its samples, ordered by
// depth. Samples without a depth are tolerated but excluded from every
// depth-derived view.
type Section struct {
	ID      string
	Samples []Sample
}

// DepthRange returns the sampled depth extent of the section. ok is false
// when no sample carries a depth.
func (s *Section) DepthRange() (min, max float64, ok bool) {
	for _, samp := range s.Samples {
		if !samp.Depth.Valid {
			continue
		}
		d := samp.Depth.Float64
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	return min, max, ok
}

// AgeRange is a half-open-agnostic age interval; interpretation (inclusive vs
// exclusive ends) is up to the consumer, but Min <= Max always holds for
// ranges produced by this module.
type AgeRange struct {
	Min float64
	Max float64
}

// Overlaps reports whether the two ranges share more than a single boundary
// point. Ranges that merely touch (a.Max == b.Min) do not overlap.
func (a AgeRange) Overlaps(b AgeRange) bool {
	return a.Min < b.Max && b.Min < a.Max
}

// Contains reports whether age falls within the range, inclusive of both
// ends.
func (a AgeRange) Contains(age float64) bool {
	return age >= a.Min && age <= a.Max
}

// AgeRange returns the calibrated age extent of the section. ok is false when
// no sample carries an age.
func (s *Section) AgeRange() (r AgeRange, ok bool) {
	for _, samp := range s.Samples {
		if !samp.Age.Valid {
			continue
		}
		a := samp.Age.Float64
		if !ok {
			r.Min, r.Max, ok = a, a, true
			continue
		}
		if a < r.Min {
			r.Min = a
		}
		if a > r.Max {
			r.Max = a
		}
	}

	return r, ok
}

// HasAges reports whether at least one sample in the section has been
// calibrated.
func (s *Section) HasAges() bool {
	for _, samp := range s.Samples {
		if samp.Age.Valid {
			return true
		}
	}

	return false
}

// ProxyPoint is one (depth, value) observation of a single proxy.
type ProxyPoint struct {
	Depth float64
	Value float64
}

// ProxySeries is a depth-ordered run of one proxy's observations with no
// missing values.
type ProxySeries []ProxyPoint

// ProxySeries extracts the named proxy as a depth-sorted series, dropping
// samples that lack either a depth or the proxy.
func (s *Section) ProxySeries(key ProxyKey) ProxySeries {
	out := make(ProxySeries, 0, len(s.Samples))
	for _, samp := range s.Samples {
		if !samp.Depth.Valid {
			continue
		}
		v, present := samp.Proxies[key]
		if !present {
			continue
		}
		out = append(out, ProxyPoint{Depth: samp.Depth.Float64, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })

	return out
}

// AlignmentCandidate is a proposed depth-to-depth correspondence between a
// reference and a target section. Ephemeral: it only becomes part of a
// chronology when promoted to tie points. Confidence runs 0-100.
type AlignmentCandidate struct {
	RefDepth    float64
	TargetDepth float64
	Confidence  float64
}

// CompositeSample is the output unit of splice composition: one age position
// whose values trace back to exactly one contributing section.
type CompositeSample struct {
	Age       float64
	SectionID string
	Values    map[ProxyKey]float64
}
