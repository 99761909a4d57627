package main

import (
	"fmt"
	"sync"

	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/correlation"
)

// store is the server's in-memory state. Nothing is persisted; the server is
// a thin interactive front over the core, and durable storage belongs to the
// surrounding application. One mutex serializes every access to section
// samples and tie points, session actions included, which keeps each section
// under a single writer. Handlers must hold mu across the whole mutation,
// not just the map lookup.
type store struct {
	mu        sync.Mutex
	sections  map[string]*chron.Section
	tiePoints map[string][]chron.TiePoint
	sessions  map[string]*correlation.Session
}

func newStore() *store {
	return &store{
		sections:  make(map[string]*chron.Section),
		tiePoints: make(map[string][]chron.TiePoint),
		sessions:  make(map[string]*correlation.Session),
	}
}

func (st *store) section(id string) (*chron.Section, error) {
	sec, ok := st.sections[id]
	if !ok {
		return nil, fmt.Errorf("unknown section %s", id)
	}

	return sec, nil
}

func (st *store) session(id string) (*correlation.Session, error) {
	sess, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", id)
	}

	return sess, nil
}
