package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/guregu/null.v3"

	"github.com/Darkarion17/paleochron/agemodel"
	"github.com/Darkarion17/paleochron/chron"
	"github.com/Darkarion17/paleochron/correlation"
	"github.com/Darkarion17/paleochron/curvealign"
	"github.com/Darkarion17/paleochron/splice"
)

type handler struct {
	store *store
}

type jsonSample struct {
	Depth        *float64           `json:"depth,omitempty"`
	Proxies      map[string]float64 `json:"proxies,omitempty"`
	Age          *float64           `json:"age,omitempty"`
	Extrapolated bool               `json:"extrapolated,omitempty"`
}

func toSamples(in []jsonSample) []chron.Sample {
	out := make([]chron.Sample, 0, len(in))
	for _, js := range in {
		samp := chron.Sample{
			Depth:   null.FloatFromPtr(js.Depth),
			Age:     null.FloatFromPtr(js.Age),
			Proxies: make(map[chron.ProxyKey]float64, len(js.Proxies)),
		}
		for k, v := range js.Proxies {
			samp.Proxies[chron.ProxyKey(k)] = v
		}
		out = append(out, samp)
	}

	return out
}

func fromSamples(in []chron.Sample) []jsonSample {
	out := make([]jsonSample, 0, len(in))
	for _, samp := range in {
		js := jsonSample{
			Depth:        samp.Depth.Ptr(),
			Age:          samp.Age.Ptr(),
			Extrapolated: samp.Extrapolated,
			Proxies:      make(map[string]float64, len(samp.Proxies)),
		}
		for k, v := range samp.Proxies {
			js.Proxies[string(k)] = v
		}
		out = append(out, js)
	}

	return out
}

// PutSection stores or replaces one section's samples.
func (h *handler) PutSection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Samples []jsonSample `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	h.store.sections[id] = &chron.Section{ID: id, Samples: toSamples(body.Samples)}
	writeJSON(w, http.StatusOK, map[string]string{"section": id})
}

// AddTiePoint appends one tie point to a section and, when the section holds
// at least two, synchronously recalibrates it before replying. Invariant
// violations are rejected with the offending anchor named, never repaired.
func (h *handler) AddTiePoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Depth float64 `json:"depth"`
		Age   float64 `json:"age"`
		Proxy string  `json:"proxy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	sec, err := h.store.section(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	proposed := append(append([]chron.TiePoint(nil), h.store.tiePoints[id]...),
		chron.TiePoint{SectionID: id, Depth: body.Depth, Age: body.Age})
	if err := chron.ValidateTiePoints(sec, proposed); err != nil {
		writeError(w, taxonomyStatus(err), err)
		return
	}

	calibrated := false
	if len(proposed) >= 2 {
		model, err := agemodel.Build(sec, proposed, chron.ProxyKey(body.Proxy))
		if err != nil {
			writeError(w, taxonomyStatus(err), err)
			return
		}
		model.Apply(sec)
		calibrated = true
	}

	h.store.tiePoints[id] = proposed
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"section":    id,
		"tiePoints":  len(proposed),
		"calibrated": calibrated,
	})
}

// GetSection returns a section's samples, calibrated to whatever extent its
// tie points allow.
func (h *handler) GetSection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	sec, err := h.store.section(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"section": sec.ID,
		"samples": fromSamples(sec.Samples),
	})
}

// Suggest runs the deterministic aligner between two stored sections.
func (h *handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref    string `json:"ref"`
		Target string `json:"target"`
		Proxy  string `json:"proxy"`
		Max    int    `json:"max,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.store.mu.Lock()
	ref, err := h.store.section(body.Ref)
	if err == nil {
		var target *chron.Section
		target, err = h.store.section(body.Target)
		if err == nil {
			key := chron.ProxyKey(body.Proxy)
			refSeries, tgtSeries := ref.ProxySeries(key), target.ProxySeries(key)
			h.store.mu.Unlock()

			cands, serr := curvealign.Suggest(refSeries, tgtSeries, body.Max)
			if serr != nil {
				writeError(w, taxonomyStatus(serr), serr)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": cands})
			return
		}
	}
	h.store.mu.Unlock()
	writeError(w, http.StatusNotFound, err)
}

// Composite splices the named calibrated sections, reporting any that were
// excluded for lacking ages.
func (h *handler) Composite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sections []string                  `json:"sections"`
		Coverage map[string]chron.AgeRange `json:"coverage,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	sections := make([]*chron.Section, 0, len(body.Sections))
	for _, id := range body.Sections {
		sec, err := h.store.section(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		sections = append(sections, sec)
	}

	var coverage splice.Coverage
	if body.Coverage != nil {
		coverage = splice.Coverage(body.Coverage)
	}

	composite, excluded, err := splice.ComposeAvailable(sections, coverage)
	if err != nil {
		writeError(w, taxonomyStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"composite": composite,
		"excluded":  excluded,
	})
}

// CreateSession opens a correlation session over two stored sections.
func (h *handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref    string `json:"ref"`
		Target string `json:"target"`
		Proxy  string `json:"proxy"`
		Max    int    `json:"max,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	ref, err := h.store.section(body.Ref)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	target, err := h.store.section(body.Target)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	sess, err := correlation.NewSession(ref, target,
		h.store.tiePoints[body.Ref], h.store.tiePoints[body.Target],
		correlation.Config{Proxy: chron.ProxyKey(body.Proxy), MaxSuggestions: body.Max})
	if err != nil {
		writeError(w, taxonomyStatus(err), err)
		return
	}

	h.store.sessions[sess.ID()] = sess
	writeJSON(w, http.StatusCreated, sessionView(sess))
}

// GetSession reports a session's state and candidates under review.
func (h *handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.store.mu.Lock()
	sess, err := h.store.session(mux.Vars(r)["id"])
	h.store.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionView(sess))
}

// SessionAction dispatches align/accept/reject/cancel on a session. Accept
// and align mutate the shared sections through the session, so the whole
// action runs under the store lock: every write to a section's samples or
// tie points is serialized with AddTiePoint and Composite, and the accepted
// tie points are published before any other request can touch them.
func (h *handler) SessionAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		Index int `json:"index,omitempty"`
	}
	// Align and cancel carry no body.
	_ = json.NewDecoder(r.Body).Decode(&body)

	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	sess, err := h.store.session(vars["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch vars["action"] {
	case "align":
		err = sess.Align(r.Context())
	case "accept":
		err = sess.Accept(body.Index)
	case "reject":
		err = sess.Reject(body.Index)
	case "cancel":
		sess.Cancel()
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown session action "+vars["action"]))
		return
	}
	if err != nil {
		writeError(w, taxonomyStatus(err), err)
		return
	}

	// Accepted tie points become visible to later sessions and composites.
	if vars["action"] == "accept" {
		refTPs, targetTPs := sess.TiePoints()
		if len(refTPs) > 0 {
			h.store.tiePoints[refTPs[0].SectionID] = refTPs
		}
		if len(targetTPs) > 0 {
			h.store.tiePoints[targetTPs[0].SectionID] = targetTPs
		}
	}

	writeJSON(w, http.StatusOK, sessionView(sess))
}

func sessionView(sess *correlation.Session) map[string]interface{} {
	return map[string]interface{}{
		"id":         sess.ID(),
		"state":      sess.State().String(),
		"candidates": sess.Candidates(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// taxonomyStatus maps the core's recoverable error kinds onto HTTP statuses.
func taxonomyStatus(err error) int {
	switch {
	case errors.Is(err, chron.ErrInsufficientTiePoints),
		errors.Is(err, chron.ErrNonMonotonicTiePoints),
		errors.Is(err, chron.ErrNoVariance),
		errors.Is(err, chron.ErrNoAgeData),
		errors.Is(err, chron.ErrOverlappingCoverage),
		errors.Is(err, chron.ErrInvalidDepthRange),
		errors.Is(err, correlation.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(err.Error(), "unknown"):
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
