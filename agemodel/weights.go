package agemodel

import (
	"math"

	"github.com/Darkarion17/paleochron/chron"
)

const (
	// flatWeight is the share of an interval's total proxy variation that is
	// spread evenly across the interval's depth, so that flat stretches still
	// advance in age and the knot ages stay strictly increasing.
	flatWeight = 0.25

	// maxKnotsPerInterval bounds the fit size; beyond it the interior points
	// are thinned evenly.
	maxKnotsPerInterval = 16

	// minIntervalCoverage is the fraction of an interval's samples that must
	// carry the hinted proxy before the interval is reweighted at all.
	minIntervalCoverage = 0.5
)

// proxyKnots converts proxy variation between two consecutive tie points into
// internal (depth, age) knots. The available age span is allocated in
// proportion to cumulative |change in proxy| along depth, with a uniform
// floor so zero-variation stretches still receive age. Returns nil when the
// proxy is too sparse in the interval or carries no variation there.
func proxyKnots(sec *chron.Section, series chron.ProxySeries, lo, hi chron.TiePoint) (xs, ys []float64) {
	if !intervalCovered(sec, series, lo.Depth, hi.Depth) {
		return nil, nil
	}

	interior := make(chron.ProxySeries, 0, len(series))
	lastDepth := math.Inf(-1)
	for _, p := range series {
		if p.Depth <= lo.Depth || p.Depth >= hi.Depth {
			continue
		}
		if p.Depth == lastDepth {
			continue
		}
		interior = append(interior, p)
		lastDepth = p.Depth
	}
	if len(interior) < 2 {
		return nil, nil
	}

	totalVar := 0.0
	for i := 1; i < len(interior); i++ {
		totalVar += math.Abs(interior[i].Value - interior[i-1].Value)
	}
	if totalVar == 0 {
		return nil, nil
	}

	floorPerDepth := flatWeight * totalVar / (hi.Depth - lo.Depth)

	// Cumulative weight at each interior depth, walking from the lower tie
	// point. The edge segments adjoining the tie points carry only the floor;
	// proxy values at the tie depths themselves are not assumed.
	weights := make([]float64, len(interior))
	w := floorPerDepth * (interior[0].Depth - lo.Depth)
	weights[0] = w
	for i := 1; i < len(interior); i++ {
		w += math.Abs(interior[i].Value-interior[i-1].Value) +
			floorPerDepth*(interior[i].Depth-interior[i-1].Depth)
		weights[i] = w
	}
	total := w + floorPerDepth*(hi.Depth-interior[len(interior)-1].Depth)

	span := hi.Age - lo.Age
	xs = make([]float64, 0, len(interior))
	ys = make([]float64, 0, len(interior))
	for i, p := range interior {
		xs = append(xs, p.Depth)
		ys = append(ys, lo.Age+span*weights[i]/total)
	}

	if len(xs) > maxKnotsPerInterval {
		xs, ys = thin(xs, ys, maxKnotsPerInterval)
	}

	return xs, ys
}

// intervalCovered reports whether the proxy is present on at least
// minIntervalCoverage of the depth-bearing samples between lo and hi.
func intervalCovered(sec *chron.Section, series chron.ProxySeries, lo, hi float64) bool {
	total := 0
	for _, samp := range sec.Samples {
		if samp.Depth.Valid && samp.Depth.Float64 >= lo && samp.Depth.Float64 <= hi {
			total++
		}
	}
	if total == 0 {
		return false
	}

	proxied := 0
	for _, p := range series {
		if p.Depth >= lo && p.Depth <= hi {
			proxied++
		}
	}

	return float64(proxied) >= minIntervalCoverage*float64(total)
}

// thin keeps n points from xs/ys at evenly spaced indices, always retaining
// the first and last.
func thin(xs, ys []float64, n int) (tx, ty []float64) {
	tx = make([]float64, 0, n)
	ty = make([]float64, 0, n)
	step := float64(len(xs)-1) / float64(n-1)
	last := -1
	for i := 0; i < n; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx == last {
			continue
		}
		tx = append(tx, xs[idx])
		ty = append(ty, ys[idx])
		last = idx
	}

	return tx, ty
}
