// Package correlation drives the interactive loop between the aligner and
// the age-model builder: run an alignment, review the suggested tie points,
// and on acceptance anchor both sections and recalibrate them before control
// returns to the caller.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/Darkarion17/paleochron/agemodel"
	"github.com/Darkarion17/paleochron/chron"
)

// State is the session's position in the correlation loop.
type State int

const (
	StateIdle State = iota
	StateAligning
	StateReviewing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAligning:
		return "aligning"
	case StateReviewing:
		return "reviewing"
	}

	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultDepthEpsilon is the depth proximity, in the sections' depth units,
// within which a suggestion is considered a restatement of an existing tie
// point and suppressed.
const DefaultDepthEpsilon = 0.05

// ErrInvalidTransition is returned when an operation is called in the wrong
// session state.
var ErrInvalidTransition = errors.New("invalid session state for this operation")

// Config tunes one correlation session. Zero values select the DTW suggester,
// the aligner's default suggestion cap, and DefaultDepthEpsilon.
type Config struct {
	Proxy          chron.ProxyKey
	MaxSuggestions int
	DepthEpsilon   float64
	Suggester      Suggester
}

// Session correlates one reference section against one target section.
// All mutation is serialized behind a single mutex: tie-point edits and the
// model rebuilds they trigger are not designed to merge concurrent writers.
type Session struct {
	id  string
	cfg Config

	mu         sync.Mutex
	state      State
	ref        *chron.Section
	target     *chron.Section
	refTPs     []chron.TiePoint
	targetTPs  []chron.TiePoint
	refModel   *agemodel.Model
	tgtModel   *agemodel.Model
	candidates []chron.AlignmentCandidate
}

// NewSession starts an idle session over the two sections and their existing
// tie points. Sections with at least two tie points are calibrated
// immediately; sections with fewer stay uncalibrated (their samples keep no
// age) until enough anchors accumulate.
func NewSession(ref, target *chron.Section, refTPs, targetTPs []chron.TiePoint, cfg Config) (*Session, error) {
	if cfg.Suggester == nil {
		cfg.Suggester = DTWSuggester{}
	}
	if cfg.DepthEpsilon <= 0 {
		cfg.DepthEpsilon = DefaultDepthEpsilon
	}

	s := &Session{
		id:        uuid.New().String(),
		cfg:       cfg,
		state:     StateIdle,
		ref:       ref,
		target:    target,
		refTPs:    append([]chron.TiePoint(nil), refTPs...),
		targetTPs: append([]chron.TiePoint(nil), targetTPs...),
	}

	if err := s.rebuild(); err != nil {
		return nil, err
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Candidates returns a copy of the suggestions currently under review.
func (s *Session) Candidates() []chron.AlignmentCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]chron.AlignmentCandidate(nil), s.candidates...)
}

// TiePoints returns copies of both sections' current tie-point lists.
func (s *Session) TiePoints() (ref, target []chron.TiePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]chron.TiePoint(nil), s.refTPs...), append([]chron.TiePoint(nil), s.targetTPs...)
}

// RefModel returns the reference section's current age model snapshot, or
// nil while the section is uncalibrated.
func (s *Session) RefModel() *agemodel.Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refModel
}

// TargetModel returns the target section's current age model snapshot, or
// nil while the section is uncalibrated.
func (s *Session) TargetModel() *agemodel.Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tgtModel
}

// Align runs the suggester and moves the session to reviewing. Suggestions
// that restate an existing tie point on either section (within the depth
// epsilon) are suppressed, so repeated align/accept cycles surface new
// correspondences instead of echoing accepted ones. Cancelling the context
// abandons the run and returns the session to idle.
func (s *Session) Align(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: align from %s", ErrInvalidTransition, st)
	}
	s.state = StateAligning
	refSeries := s.ref.ProxySeries(s.cfg.Proxy)
	tgtSeries := s.target.ProxySeries(s.cfg.Proxy)
	s.mu.Unlock()

	cands, err := suggestWithContext(ctx, s.cfg.Suggester, refSeries, tgtSeries, s.cfg.MaxSuggestions)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		return err
	}

	s.candidates = s.filterKnown(cands)
	s.state = StateReviewing

	return nil
}

// Accept promotes the candidate at index to a tie point on both sections and
// synchronously rebuilds and reapplies both age models before returning, so
// the caller never observes an accepted-but-uncalibrated state. The new
// anchors share the age the reference model assigns to the candidate's
// reference depth. Accepting a candidate that is already anchored is a
// no-op. On success the session returns to idle.
func (s *Session) Accept(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return fmt.Errorf("%w: accept from %s", ErrInvalidTransition, s.state)
	}
	if index < 0 || index >= len(s.candidates) {
		return fmt.Errorf("candidate index %d out of range", index)
	}

	cand := s.candidates[index]

	if s.known(cand) {
		// Already promoted in an earlier cycle.
		s.candidates = nil
		s.state = StateIdle
		return nil
	}

	if s.refModel == nil {
		return &chron.SectionError{Kind: chron.ErrInsufficientTiePoints, SectionID: s.ref.ID}
	}
	age, _ := s.refModel.AgeAt(cand.RefDepth)

	refTPs := s.refTPs
	if !nearAny(refTPs, cand.RefDepth, s.cfg.DepthEpsilon) {
		refTPs = append(append([]chron.TiePoint(nil), refTPs...),
			chron.TiePoint{SectionID: s.ref.ID, Depth: cand.RefDepth, Age: age})
	}
	targetTPs := append(append([]chron.TiePoint(nil), s.targetTPs...),
		chron.TiePoint{SectionID: s.target.ID, Depth: cand.TargetDepth, Age: age})

	// Validate against both chronologies before committing anything; a
	// rejected promotion leaves the session reviewing with the candidate
	// intact.
	if err := chron.ValidateTiePoints(s.ref, refTPs); err != nil {
		return err
	}
	if err := chron.ValidateTiePoints(s.target, targetTPs); err != nil {
		return err
	}

	s.refTPs = refTPs
	s.targetTPs = targetTPs
	if err := s.rebuild(); err != nil {
		return err
	}

	s.candidates = nil
	s.state = StateIdle

	return nil
}

// Reject discards the candidate at index and stays in reviewing.
func (s *Session) Reject(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, s.state)
	}
	if index < 0 || index >= len(s.candidates) {
		return fmt.Errorf("candidate index %d out of range", index)
	}

	s.candidates = append(s.candidates[:index], s.candidates[index+1:]...)

	return nil
}

// Cancel abandons review and returns the session to idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = nil
	s.state = StateIdle
}

// rebuild recomputes and reapplies the age model for any section holding at
// least two tie points. Callers hold the mutex (or exclusive access during
// construction).
func (s *Session) rebuild() error {
	if len(s.refTPs) >= 2 {
		m, err := agemodel.Build(s.ref, s.refTPs, s.cfg.Proxy)
		if err != nil {
			return err
		}
		m.Apply(s.ref)
		s.refModel = m
	}
	if len(s.targetTPs) >= 2 {
		m, err := agemodel.Build(s.target, s.targetTPs, s.cfg.Proxy)
		if err != nil {
			return err
		}
		m.Apply(s.target)
		s.tgtModel = m
	}

	return nil
}

// filterKnown drops candidates that restate an existing anchor on either
// section.
func (s *Session) filterKnown(cands []chron.AlignmentCandidate) []chron.AlignmentCandidate {
	out := make([]chron.AlignmentCandidate, 0, len(cands))
	for _, c := range cands {
		if s.known(c) {
			continue
		}
		out = append(out, c)
	}

	return out
}

// known reports whether the candidate's depths both sit within epsilon of
// existing tie points on their respective sections.
func (s *Session) known(c chron.AlignmentCandidate) bool {
	return nearAny(s.refTPs, c.RefDepth, s.cfg.DepthEpsilon) &&
		nearAny(s.targetTPs, c.TargetDepth, s.cfg.DepthEpsilon)
}

func nearAny(tps []chron.TiePoint, depth, epsilon float64) bool {
	for _, tp := range tps {
		if math.Abs(tp.Depth-depth) <= epsilon {
			return true
		}
	}

	return false
}
