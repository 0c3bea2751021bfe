package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/admission"
	"github.com/nidhogg/mentat/internal/attention"
	"github.com/nidhogg/mentat/internal/graphsource"
	"github.com/nidhogg/mentat/internal/runner"
)

// newTestHandler wires a Handler with in-memory deps only (no databases).
func newTestHandler(t *testing.T) (*attention.Engine, http.Handler) {
	t.Helper()
	logger := zap.NewNop()

	engine, err := attention.New(attention.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler := admission.New(logger)

	h := NewHandler(engine, scheduler, nil, nil, logger)
	return engine, h.Router()
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := getJSON(t, ts, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestGetAttention(t *testing.T) {
	engine, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	engine.SetAttentionValue("node-1", attention.AttentionValue{STI: 1234, LTI: 56, VLTI: 1})

	resp := getJSON(t, ts, "/api/attention/node-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var entry struct {
		NodeID string `json:"node_id"`
		STI    int    `json:"sti"`
		VLTI   int    `json:"vlti"`
	}
	decodeJSON(t, resp, &entry)
	if entry.NodeID != "node-1" || entry.STI != 1234 || entry.VLTI != 1 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestGetAttentionAbsent(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := getJSON(t, ts, "/api/attention/ghost")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for absent node", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListAttentionOrderedAndLimited(t *testing.T) {
	engine, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	engine.SetAttentionValue("low", attention.AttentionValue{STI: 10})
	engine.SetAttentionValue("high", attention.AttentionValue{STI: 9000})
	engine.SetAttentionValue("mid", attention.AttentionValue{STI: 500})

	resp := getJSON(t, ts, "/api/attention?limit=2")
	var entries []struct {
		NodeID string `json:"node_id"`
		STI    int    `json:"sti"`
	}
	decodeJSON(t, resp, &entries)

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].NodeID != "high" || entries[1].NodeID != "mid" {
		t.Errorf("wrong order: %+v", entries)
	}
}

func TestGetBank(t *testing.T) {
	engine, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	engine.SetAttentionValue("n", attention.AttentionValue{STI: 100})

	resp := getJSON(t, ts, "/api/bank")
	var body struct {
		Bank  float64 `json:"bank"`
		Nodes int     `json:"nodes"`
	}
	decodeJSON(t, resp, &body)
	if body.Bank != attention.DefaultConfig().AttentionBank {
		t.Errorf("bank = %f", body.Bank)
	}
	if body.Nodes != 1 {
		t.Errorf("nodes = %d, want 1", body.Nodes)
	}
}

func TestScheduleEndpoint(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	req := map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"id": "big", "priority": 90, "resources": map[string]float64{"cpu": 5000, "memory": 5000, "bandwidth": 5000, "storage": 5000}},
			{"id": "small", "priority": 10, "resources": map[string]float64{"cpu": 100, "memory": 100, "bandwidth": 100, "storage": 100}},
		},
		"available": map[string]float64{"cpu": 1000, "memory": 1000, "bandwidth": 1000, "storage": 1000},
	}
	resp := postJSON(t, ts, "/api/schedule", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Admitted []struct {
			ID string `json:"id"`
		} `json:"admitted"`
		ResourceUtilizationPercent float64 `json:"resource_utilization_percent"`
	}
	decodeJSON(t, resp, &result)
	if len(result.Admitted) != 1 || result.Admitted[0].ID != "small" {
		t.Errorf("unexpected admission: %+v", result.Admitted)
	}
	if result.ResourceUtilizationPercent != 10.0 {
		t.Errorf("utilization = %f, want 10.0", result.ResourceUtilizationPercent)
	}
}

func TestScheduleEndpointBadBody(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/schedule", "application/json", bytes.NewReader([]byte("{nope")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestForceCycleEndpoint(t *testing.T) {
	logger := zap.NewNop()
	engine, err := attention.New(attention.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.SetAttentionValue("n", attention.AttentionValue{STI: 10000, LTI: 5000})

	src := graphsource.NewFileSource("/nonexistent.json") // cycle survives a dead source
	run := runner.New(engine, src, nil, nil, time.Minute, logger)
	h := NewHandler(engine, admission.New(logger), run, nil, logger)
	ts := httptest.NewServer(h.Router())
	defer ts.Close()

	resp := postJSON(t, ts, "/api/cycle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var stats attention.CycleStats
	decodeJSON(t, resp, &stats)
	if stats.RentCollected == 0 {
		t.Error("forced cycle collected no rent from a positive-STI store")
	}
}

func TestForceCycleWithoutRunner(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/cycle", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSimilarNodesWithoutIndex(t *testing.T) {
	_, router := newTestHandler(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/nodes/similar", map[string]interface{}{"vector": []float32{0.1, 0.2}})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()
}
