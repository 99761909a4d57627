package agemodel

import (
	"github.com/carbocation/pfx"

	"github.com/Darkarion17/paleochron/chron"
)

// Build derives the age model for one section from its tie points. At least
// two tie points are required; fewer yields chron.ErrInsufficientTiePoints
// and the caller must leave every sample's age absent. Tie points must lie
// within the section's sampled depth range and their ages must strictly
// increase with depth; violations surface as chron error kinds and are never
// repaired here.
//
// When proxyHint names a proxy measured on most of the samples between a pair
// of tie points, the interval's age span is reallocated by proxy variation
// before the monotone cubic is fit: stretches where the proxy changes quickly
// receive proportionally more of the span than flat stretches. The hard
// monotonicity constraint and exact tie-point reproduction are unaffected.
func Build(sec *chron.Section, tiePoints []chron.TiePoint, proxyHint chron.ProxyKey) (*Model, error) {
	if len(tiePoints) < 2 {
		return nil, &chron.SectionError{Kind: chron.ErrInsufficientTiePoints, SectionID: sec.ID}
	}

	if err := chron.ValidateTiePoints(sec, tiePoints); err != nil {
		return nil, err
	}

	sorted := make([]chron.TiePoint, len(tiePoints))
	copy(sorted, tiePoints)
	chron.SortTiePoints(sorted)

	xs, ys := knots(sec, sorted, proxyHint)

	m := &Model{sectionID: sec.ID, tiePoints: sorted}
	if err := m.spline.Fit(xs, ys); err != nil {
		// Unreachable for validated knots; surfaced rather than swallowed.
		return nil, pfx.Err(err)
	}

	first, second := sorted[0], sorted[1]
	penult, last := sorted[len(sorted)-2], sorted[len(sorted)-1]

	m.loDepth, m.loAge = first.Depth, first.Age
	m.loSlope = (second.Age - first.Age) / (second.Depth - first.Depth)
	m.hiDepth, m.hiAge = last.Depth, last.Age
	m.hiSlope = (last.Age - penult.Age) / (last.Depth - penult.Depth)

	return m, nil
}

// knots assembles the interpolation knots: the tie points themselves plus,
// where the proxy hint applies, variation-weighted internal knots per
// interval.
func knots(sec *chron.Section, sorted []chron.TiePoint, proxyHint chron.ProxyKey) (xs, ys []float64) {
	var series chron.ProxySeries
	if proxyHint != "" {
		series = sec.ProxySeries(proxyHint)
	}

	xs = make([]float64, 0, len(sorted))
	ys = make([]float64, 0, len(sorted))

	for i, tp := range sorted {
		xs = append(xs, tp.Depth)
		ys = append(ys, tp.Age)

		if i == len(sorted)-1 || len(series) == 0 {
			continue
		}

		next := sorted[i+1]
		kx, ky := proxyKnots(sec, series, tp, next)
		xs = append(xs, kx...)
		ys = append(ys, ky...)
	}

	return xs, ys
}
