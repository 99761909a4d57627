// Package curvealign proposes depth-to-depth correspondences between two
// sections' measurements of the same proxy. Matches are constrained to be
// order-preserving, found by banded dynamic time warping over the two
// z-scored curves, and are fully deterministic: identical inputs always yield
// identical suggestions.
package curvealign

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/Darkarion17/paleochron/chron"
)

const (
	// DefaultMaxSuggestions caps the candidate list when the caller passes a
	// non-positive limit.
	DefaultMaxSuggestions = 7

	// minSeriesLen is the shortest series worth aligning; anything shorter
	// has too little signal and yields no suggestions.
	minSeriesLen = 5

	// minSeparationCells keeps two suggestions from naming near-identical
	// spots on either curve.
	minSeparationCells = 3

	// nearZeroCost is the normalized local cost under which an
	// extremum-to-extremum match earns the reserved confidence of 100.
	nearZeroCost = 0.05

	costWeight      = 0.7
	curvatureWeight = 0.3
)

// Suggest proposes up to maxSuggestions correspondences between the
// reference and target series, highest confidence first (ties broken by
// ascending reference depth). Both series must be depth-ordered with no
// missing values. A series shorter than five points yields no suggestions;
// a series with zero variance yields chron.ErrNoVariance.
func Suggest(reference, target chron.ProxySeries, maxSuggestions int) ([]chron.AlignmentCandidate, error) {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	if len(reference) < minSeriesLen || len(target) < minSeriesLen {
		return nil, nil
	}

	ref, ok := zscore(reference)
	if !ok {
		return nil, fmt.Errorf("reference series: %w", chron.ErrNoVariance)
	}
	tgt, ok := zscore(target)
	if !ok {
		return nil, fmt.Errorf("target series: %w", chron.ErrNoVariance)
	}

	path := warpPath(ref, tgt, bandWidth(len(ref), len(tgt)))

	costs := make([]float64, len(path))
	minCost := math.Inf(1)
	for k, c := range path {
		costs[k] = math.Abs(ref[c.i] - tgt[c.j])
		if costs[k] < minCost {
			minCost = costs[k]
		}
	}
	// The 95th percentile, not the max, anchors the cost scale so one
	// terrible stretch of the path cannot flatten every other score.
	highCost, err := stats.Percentile(stats.Float64Data(costs), 95)
	if err != nil || highCost <= minCost {
		highCost = minCost + 1
	}

	cands := extract(path, costs, ref, tgt, reference, target, minCost, highCost)
	cands = dedupe(cands)

	sort.Slice(cands, func(a, b int) bool {
		if cands[a].cand.Confidence != cands[b].cand.Confidence {
			return cands[a].cand.Confidence > cands[b].cand.Confidence
		}
		return cands[a].cand.RefDepth < cands[b].cand.RefDepth
	})
	if len(cands) > maxSuggestions {
		cands = cands[:maxSuggestions]
	}

	out := make([]chron.AlignmentCandidate, len(cands))
	for i, sc := range cands {
		out[i] = sc.cand
	}

	return out, nil
}

// scoredCell pairs a candidate with the path cell it came from, for dedupe.
type scoredCell struct {
	cand chron.AlignmentCandidate
	cell warpCell
}

// extract walks the warping path and keeps the salient cells: sharp path
// direction changes and matched local extrema. Each kept cell is scored by
// blending inverse local cost with curvature-sign agreement; 100 is reserved
// for extremum-to-extremum matches at near-zero cost.
func extract(path []warpCell, costs, ref, tgt []float64, refSeries, tgtSeries chron.ProxySeries, minCost, highCost float64) []scoredCell {
	out := make([]scoredCell, 0, 16)

	for k, c := range path {
		refExt := extremumSign(ref, c.i)
		sharedExt := refExt != 0 && refExt == extremumSign(tgt, c.j)
		if !sharedExt && !slopeBreak(path, k) {
			continue
		}

		rel := (costs[k] - minCost) / (highCost - minCost)
		if rel > 1 {
			rel = 1
		}
		invCost := 1 - rel

		rc, tc := curvatureSign(ref, c.i), curvatureSign(tgt, c.j)
		curvAgree := 0.5
		switch {
		case rc != 0 && rc == tc:
			curvAgree = 1
		case rc != 0 && tc != 0 && rc != tc:
			curvAgree = 0
		}

		score := math.Round(100 * (costWeight*invCost + curvatureWeight*curvAgree))
		if sharedExt && costs[k] < nearZeroCost {
			score = 100
		} else if score > 99 {
			score = 99
		}
		if score < 0 {
			score = 0
		}

		out = append(out, scoredCell{
			cand: chron.AlignmentCandidate{
				RefDepth:    refSeries[c.i].Depth,
				TargetDepth: tgtSeries[c.j].Depth,
				Confidence:  score,
			},
			cell: c,
		})
	}

	return out
}

// dedupe greedily keeps the best-scoring cell in any crowded neighborhood of
// the path, so the output does not restate one match several times.
func dedupe(cands []scoredCell) []scoredCell {
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].cand.Confidence != cands[b].cand.Confidence {
			return cands[a].cand.Confidence > cands[b].cand.Confidence
		}
		return cands[a].cell.i < cands[b].cell.i
	})

	kept := make([]scoredCell, 0, len(cands))
	for _, c := range cands {
		crowded := false
		for _, k := range kept {
			di := c.cell.i - k.cell.i
			if di < 0 {
				di = -di
			}
			dj := c.cell.j - k.cell.j
			if dj < 0 {
				dj = -dj
			}
			if di < minSeparationCells && dj < minSeparationCells {
				crowded = true
				break
			}
		}
		if !crowded {
			kept = append(kept, c)
		}
	}

	return kept
}
