package correlation

import (
	"context"

	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/curvealign"
)

// Suggester proposes correspondences between two proxy series. The default
// is the deterministic DTW aligner; a remote or model-backed implementation
// can be substituted as long as it honors the same contract (order-preserving
// pairs, confidence 0-100, capped and sorted output).
type Suggester interface {
	Suggest(reference, target chron.ProxySeries, maxSuggestions int) ([]chron.AlignmentCandidate, error)
}

// DTWSuggester is the default Suggester, backed by curvealign.
type DTWSuggester struct{}

func (DTWSuggester) Suggest(reference, target chron.ProxySeries, maxSuggestions int) ([]chron.AlignmentCandidate, error) {
	return curvealign.Suggest(reference, target, maxSuggestions)
}

// suggestWithContext runs the suggester on its own goroutine so the caller
// can abandon a long alignment. There is no mid-run checkpoint: a cancelled
// run is discarded wholesale and must be restarted, never resumed.
func suggestWithContext(ctx context.Context, s Suggester, reference, target chron.ProxySeries, maxSuggestions int) ([]chron.AlignmentCandidate, error) {
	type result struct {
		cands []chron.AlignmentCandidate
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		cands, err := s.Suggest(reference, target, maxSuggestions)
		ch <- result{cands: cands, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.cands, res.err
	}
}
