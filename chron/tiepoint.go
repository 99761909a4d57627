package chron

import "sort"

// TiePoint is a user-asserted (depth, age) anchor for one section's
// chronology.
type TiePoint struct {
	SectionID string
	Depth     float64
	Age       float64
}

// SortTiePoints orders tie points by depth, in place.
func SortTiePoints(tps []TiePoint) {
	sort.Slice(tps, func(i, j int) bool { return tps[i].Depth < tps[j].Depth })
}

// ValidateTiePoints checks a section's tie points against the chronology
// invariants: every depth must fall within the section's sampled depth range,
// and age must strictly increase with depth. The input is not mutated. A
// violation is reported, never repaired; silently reordering or dropping an
// anchor would misrepresent the chronology.
func ValidateTiePoints(sec *Section, tps []TiePoint) error {
	min, max, ok := sec.DepthRange()
	if !ok {
		return &SectionError{Kind: ErrInvalidDepthRange, SectionID: sec.ID}
	}

	for _, tp := range tps {
		if tp.Depth < min || tp.Depth > max {
			return &TiePointError{Kind: ErrInvalidDepthRange, SectionID: sec.ID, First: tp}
		}
	}

	sorted := make([]TiePoint, len(tps))
	copy(sorted, tps)
	SortTiePoints(sorted)

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Depth == prev.Depth || cur.Age <= prev.Age {
			return &TiePointError{Kind: ErrNonMonotonicTiePoints, SectionID: sec.ID, First: prev, Second: cur, hasPair: true}
		}
	}

	return nil
}
