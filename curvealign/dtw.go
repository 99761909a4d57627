package curvealign

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Darkarion17/paleochron/chron"
)

// warpCell is one cell of the warping path: index i into the reference
// series matched against index j into the target series.
type warpCell struct {
	i int
	j int
}

// zscore centers and scales the series' values. The boolean is false when the
// series has no variance.
func zscore(s chron.ProxySeries) ([]float64, bool) {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}

	mean, std := stat.MeanStdDev(vals, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, false
	}

	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = (v - mean) / std
	}

	return out, true
}

// bandWidth picks the Sakoe-Chiba half-width: wide enough to absorb the
// length difference between the two series plus a tenth of the longer one.
func bandWidth(n, m int) int {
	long := n
	if m > long {
		long = m
	}
	w := long / 10
	if w < 8 {
		w = 8
	}
	diff := n - m
	if diff < 0 {
		diff = -diff
	}

	return w + diff
}

// warpPath runs banded dynamic time warping over the two normalized series
// and backtracks the minimum-cost monotone path from (0,0) to (n-1,m-1).
// Cost is pointwise absolute difference. Ties during backtracking prefer the
// diagonal step, then the reference step, then the target step, which keeps
// the path (and everything derived from it) deterministic.
func warpPath(ref, tgt []float64, window int) []warpCell {
	n, m := len(ref), len(tgt)

	acc := make([][]float64, n)
	for i := range acc {
		acc[i] = make([]float64, m)
		for j := range acc[i] {
			acc[i][j] = math.Inf(1)
		}
	}

	for i := 0; i < n; i++ {
		// Band center tracks the diagonal of the (possibly uneven) matrix.
		center := i * m / n
		jLo := center - window
		if jLo < 0 {
			jLo = 0
		}
		jHi := center + window
		if jHi > m-1 {
			jHi = m - 1
		}

		for j := jLo; j <= jHi; j++ {
			cost := math.Abs(ref[i] - tgt[j])
			switch {
			case i == 0 && j == 0:
				acc[i][j] = cost
			case i == 0:
				acc[i][j] = cost + acc[i][j-1]
			case j == 0:
				acc[i][j] = cost + acc[i-1][j]
			default:
				acc[i][j] = cost + math.Min(acc[i-1][j-1], math.Min(acc[i-1][j], acc[i][j-1]))
			}
		}
	}

	// Backtrack.
	path := make([]warpCell, 0, n+m)
	i, j := n-1, m-1
	path = append(path, warpCell{i, j})
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			diag, up, left := acc[i-1][j-1], acc[i-1][j], acc[i][j-1]
			best := math.Min(diag, math.Min(up, left))
			switch best {
			case diag:
				i, j = i-1, j-1
			case up:
				i--
			default:
				j--
			}
		}
		path = append(path, warpCell{i, j})
	}

	// Reverse into ascending order.
	for a, b := 0, len(path)-1; a < b; a, b = a+1, b-1 {
		path[a], path[b] = path[b], path[a]
	}

	return path
}
