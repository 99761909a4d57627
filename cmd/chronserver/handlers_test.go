package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(router(newStore()))
	t.Cleanup(srv.Close)

	return srv
}

// do issues one JSON request and decodes the JSON reply.
func do(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	return resp.StatusCode, decoded
}

// sinSamples builds a section body with a smooth oscillating proxy, enough
// structure for the aligner to find shared extrema.
func sinSamples(n int) map[string]interface{} {
	samples := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		d := float64(i) * 0.2
		samples = append(samples, map[string]interface{}{
			"depth":   d,
			"proxies": map[string]float64{"d18O": math.Sin(d)},
		})
	}

	return map[string]interface{}{"samples": samples}
}

func putSection(t *testing.T, srv *httptest.Server, id string, n int) {
	t.Helper()
	if status, _ := do(t, srv, "PUT", "/sections/"+id, sinSamples(n)); status != http.StatusOK {
		t.Fatalf("put %s: status %d", id, status)
	}
}

func addTiePoint(t *testing.T, srv *httptest.Server, id string, depth, age float64) {
	t.Helper()
	status, reply := do(t, srv, "POST", "/sections/"+id+"/tiepoints",
		map[string]interface{}{"depth": depth, "age": age})
	if status != http.StatusOK {
		t.Fatalf("tie point (%g, %g) on %s: status %d, %v", depth, age, id, status, reply)
	}
}

func TestServerCalibrationRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	putSection(t, srv, "ref", 101)
	addTiePoint(t, srv, "ref", 0, 0)
	addTiePoint(t, srv, "ref", 20, 200)

	status, reply := do(t, srv, "GET", "/sections/ref", nil)
	if status != http.StatusOK {
		t.Fatalf("get section: status %d", status)
	}
	samples, ok := reply["samples"].([]interface{})
	if !ok || len(samples) != 101 {
		t.Fatalf("expected 101 samples back, got %v", reply["samples"])
	}
	first := samples[0].(map[string]interface{})
	if _, aged := first["age"]; !aged {
		t.Fatalf("samples not calibrated after two tie points: %v", first)
	}
}

// A session accept must publish its tie points to the store atomically, so a
// later direct tie-point write validates against them.
func TestServerSessionAcceptPublishesTiePoints(t *testing.T) {
	srv := newTestServer(t)

	putSection(t, srv, "ref", 101)
	putSection(t, srv, "tgt", 101)
	addTiePoint(t, srv, "ref", 0, 0)
	addTiePoint(t, srv, "ref", 20, 200)

	status, reply := do(t, srv, "POST", "/sessions",
		map[string]interface{}{"ref": "ref", "target": "tgt", "proxy": "d18O"})
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d, %v", status, reply)
	}
	id := reply["id"].(string)

	status, reply = do(t, srv, "POST", "/sessions/"+id+"/align", nil)
	if status != http.StatusOK {
		t.Fatalf("align: status %d, %v", status, reply)
	}
	cands, _ := reply["candidates"].([]interface{})
	if len(cands) == 0 {
		t.Fatal("identical oscillating sections produced no candidates")
	}

	status, reply = do(t, srv, "POST", "/sessions/"+id+"/accept",
		map[string]interface{}{"index": 0})
	if status != http.StatusOK {
		t.Fatalf("accept: status %d, %v", status, reply)
	}
	if reply["state"] != "idle" {
		t.Fatalf("state after accept = %v, want idle", reply["state"])
	}

	// The accepted target anchor sits at depth > 0 with an age well under
	// 1000, so this tie point inverts the ordering and must be rejected.
	status, reply = do(t, srv, "POST", "/sections/tgt/tiepoints",
		map[string]interface{}{"depth": 0, "age": 1000})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("conflicting tie point after accept: status %d, %v (accepted anchors not published?)", status, reply)
	}
}

// Hammers tie-point writes, session aligns, and composites on the same
// section from many goroutines. Run with the race detector; every mutation
// of a section must funnel through the store lock.
func TestServerConcurrentSectionMutation(t *testing.T) {
	srv := newTestServer(t)

	putSection(t, srv, "ref", 101)
	putSection(t, srv, "tgt", 101)
	addTiePoint(t, srv, "ref", 0, 0)
	addTiePoint(t, srv, "ref", 20, 200)

	status, reply := do(t, srv, "POST", "/sessions",
		map[string]interface{}{"ref": "ref", "target": "tgt", "proxy": "d18O"})
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d, %v", status, reply)
	}
	id := reply["id"].(string)

	var wg sync.WaitGroup
	errc := make(chan string, 32)

	// All added anchors sit on the age = 10 * depth line, so they stay
	// mutually monotonic in any arrival order.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := 2.0 + float64(i)*0.1
			status, reply := do(t, srv, "POST", "/sections/ref/tiepoints",
				map[string]interface{}{"depth": d, "age": d * 10})
			if status != http.StatusOK {
				errc <- fmt.Sprintf("tie point at %g: status %d, %v", d, status, reply)
			}
		}(i)
	}

	// Only the first align can win; the rest are rejected as invalid
	// transitions. Either way the request must complete cleanly.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, reply := do(t, srv, "POST", "/sessions/"+id+"/align", nil)
			if status != http.StatusOK && status != http.StatusUnprocessableEntity {
				errc <- fmt.Sprintf("align: status %d, %v", status, reply)
			}
		}()
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, reply := do(t, srv, "POST", "/composite",
				map[string]interface{}{"sections": []string{"ref"}})
			if status != http.StatusOK {
				errc <- fmt.Sprintf("composite: status %d, %v", status, reply)
			}
		}()
	}

	wg.Wait()
	close(errc)
	for msg := range errc {
		t.Error(msg)
	}

	if status, _ := do(t, srv, "GET", "/sections/ref", nil); status != http.StatusOK {
		t.Fatalf("section unreadable after concurrent mutation: status %d", status)
	}
}
