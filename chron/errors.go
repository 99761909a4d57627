package chron

import (
	"errors"
	"fmt"
)

// Error kinds. All are recoverable, caller-visible conditions; match them
// with errors.Is. The detail types below carry the offending section, tie
// points, or coverage intervals so the caller can pinpoint the fix.
var (
	ErrInsufficientTiePoints = errors.New("at least two tie points are required")
	ErrNonMonotonicTiePoints = errors.New("tie point age must strictly increase with depth")
	ErrNoVariance            = errors.New("proxy series has no variance")
	ErrNoAgeData             = errors.New("section carries no age data")
	ErrOverlappingCoverage   = errors.New("coverage intervals overlap")
	ErrInvalidDepthRange     = errors.New("tie point depth outside the section's sampled range")
)

// TiePointError reports a tie point (or a consecutive pair) violating a
// chronology invariant.
type TiePointError struct {
	Kind      error
	SectionID string
	First     TiePoint
	Second    TiePoint

	hasPair bool
}

func (e *TiePointError) Error() string {
	if e.hasPair {
		return fmt.Sprintf("section %s: %v: (depth %g, age %g) then (depth %g, age %g)",
			e.SectionID, e.Kind, e.First.Depth, e.First.Age, e.Second.Depth, e.Second.Age)
	}

	return fmt.Sprintf("section %s: %v: (depth %g, age %g)", e.SectionID, e.Kind, e.First.Depth, e.First.Age)
}

func (e *TiePointError) Unwrap() error { return e.Kind }

// SectionError reports a whole-section condition such as missing age data.
type SectionError struct {
	Kind      error
	SectionID string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.SectionID, e.Kind)
}

func (e *SectionError) Unwrap() error { return e.Kind }

// CoverageError reports a pair of explicit coverage intervals that overlap.
type CoverageError struct {
	SectionA string
	RangeA   AgeRange
	SectionB string
	RangeB   AgeRange
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("%v: %s [%g, %g] and %s [%g, %g]",
		ErrOverlappingCoverage, e.SectionA, e.RangeA.Min, e.RangeA.Max, e.SectionB, e.RangeB.Min, e.RangeB.Max)
}

func (e *CoverageError) Unwrap() error { return ErrOverlappingCoverage }
