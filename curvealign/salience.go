package curvealign

import "math"

const (
	// extremumRadius is the neighborhood a point must dominate to count as a
	// local peak or trough.
	extremumRadius = 2

	// slopeBreakRadians is the minimum change in warping-path direction, in
	// radians, for a path cell to count as a slope break (~30 degrees).
	slopeBreakRadians = 0.52

	// slopeWindow is the number of path cells on each side used to measure
	// the local path direction.
	slopeWindow = 3
)

// extremumSign reports whether vals[i] is a strict local extremum within
// extremumRadius: +1 for a peak, -1 for a trough, 0 for neither. Points too
// close to either end never qualify; dominating a one-sided neighborhood is
// not an extremum.
func extremumSign(vals []float64, i int) int {
	lo := i - extremumRadius
	hi := i + extremumRadius
	if lo < 0 || hi > len(vals)-1 {
		return 0
	}

	peak, trough := true, true
	for k := lo; k <= hi; k++ {
		if k == i {
			continue
		}
		if vals[k] >= vals[i] {
			peak = false
		}
		if vals[k] <= vals[i] {
			trough = false
		}
	}

	switch {
	case peak:
		return 1
	case trough:
		return -1
	}

	return 0
}

// curvatureSign is the sign of the discrete second difference at i, with a
// small dead zone so numerically flat points read as 0.
func curvatureSign(vals []float64, i int) int {
	if i <= 0 || i >= len(vals)-1 {
		return 0
	}
	d2 := vals[i-1] - 2*vals[i] + vals[i+1]
	switch {
	case d2 > 1e-9:
		return 1
	case d2 < -1e-9:
		return -1
	}

	return 0
}

// slopeBreak reports whether the warping path changes direction sharply at
// path[k], comparing the step vectors over slopeWindow cells on either side.
func slopeBreak(path []warpCell, k int) bool {
	if k < slopeWindow || k+slopeWindow > len(path)-1 {
		return false
	}
	before := path[k]
	prev := path[k-slopeWindow]
	next := path[k+slopeWindow]

	aIn := math.Atan2(float64(before.j-prev.j), float64(before.i-prev.i))
	aOut := math.Atan2(float64(next.j-before.j), float64(next.i-before.i))

	return math.Abs(aOut-aIn) >= slopeBreakRadians
}
