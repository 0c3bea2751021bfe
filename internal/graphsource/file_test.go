package graphsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	data := `{
		"nodes": [
			{"id": "a", "type": "concept", "attributes": {"activation": 0.7, "system_critical": true}},
			{"id": "b", "type": "relation"},
			{"type": "orphan-without-id"}
		],
		"edges": [
			{"id": "e1", "source": "a", "target": "b", "type": "related", "weight": 0.4},
			{"source": "a", "target": "b"}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	snap, err := NewFileSource(path).LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snap.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 (id-less entries dropped)", len(snap.Nodes))
	}
	if !snap.Nodes["a"].Attributes.SystemCritical {
		t.Error("system_critical attribute lost")
	}
	if len(snap.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(snap.Edges))
	}
	if snap.Edges["e1"].Weight != 0.4 {
		t.Errorf("edge weight = %f, want 0.4", snap.Edges["e1"].Weight)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource("/does/not/exist.json").LoadSnapshot(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSourceMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := NewFileSource(path).LoadSnapshot(context.Background()); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
