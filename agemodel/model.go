// Package agemodel turns a section's tie points into a continuous, monotonic
// depth-to-age function and stamps the resulting ages onto the section's
// samples.
package agemodel

import (
	"gonum.org/v1/gonum/interp"
	"gopkg.in/guregu/null.v3"

	"github.com/Darkarion17/paleochron/chron"
)

// Model is an immutable depth->age function for one section. Between the
// outermost tie points it evaluates a monotone (Fritsch-Butland) cubic fit
// through the tie points and any proxy-derived knots; outside them it
// extrapolates linearly along the nearest tie-point pair's slope.
type Model struct {
	sectionID string
	tiePoints []chron.TiePoint

	spline interp.FritschButland

	loDepth, loAge, loSlope float64
	hiDepth, hiAge, hiSlope float64
}

// SectionID returns the ID of the section the model was built from.
func (m *Model) SectionID() string { return m.sectionID }

// TiePoints returns a depth-sorted copy of the tie points the model was built
// from. The model itself never changes; rebuilding after a tie-point mutation
// yields a new Model.
func (m *Model) TiePoints() []chron.TiePoint {
	out := make([]chron.TiePoint, len(m.tiePoints))
	copy(out, m.tiePoints)

	return out
}

// Domain returns the depth span covered by the tie points. Depths outside it
// are extrapolated.
func (m *Model) Domain() (min, max float64) { return m.loDepth, m.hiDepth }

// AgeAt evaluates the model at one depth. extrapolated reports whether the
// depth fell outside the tie-point range.
func (m *Model) AgeAt(depth float64) (age float64, extrapolated bool) {
	switch {
	case depth < m.loDepth:
		return m.loAge + m.loSlope*(depth-m.loDepth), true
	case depth > m.hiDepth:
		return m.hiAge + m.hiSlope*(depth-m.hiDepth), true
	}

	return m.spline.Predict(depth), false
}

// Apply stamps an age onto every sample that carries a depth, marking the
// ones that fell outside the tie-point range. Samples without a depth are
// left untouched.
func (m *Model) Apply(sec *chron.Section) {
	for i := range sec.Samples {
		if !sec.Samples[i].Depth.Valid {
			continue
		}
		age, extrapolated := m.AgeAt(sec.Samples[i].Depth.Float64)
		sec.Samples[i].Age = null.FloatFrom(age)
		sec.Samples[i].Extrapolated = extrapolated
	}
}
