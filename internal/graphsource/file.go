package graphsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nidhogg/mentat/internal/attention"
)

// FileSource loads a graph snapshot from a JSON file. Used by the offline
// simulator and by tests; re-reads the file on every call so a changed
// graph is picked up on the next cycle.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed snapshot source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// fileSnapshot is the on-disk shape: lists instead of maps, so hand-written
// graph files stay readable.
type fileSnapshot struct {
	Nodes []*attention.GraphNode `json:"nodes"`
	Edges []*attention.GraphEdge `json:"edges"`
}

// LoadSnapshot reads and keys the snapshot. Entries without ids are
// dropped rather than failing the load.
func (s *FileSource) LoadSnapshot(_ context.Context) (*attention.GraphSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read graph file %s: %w", s.path, err)
	}

	var fs fileSnapshot
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse graph file %s: %w", s.path, err)
	}

	snap := &attention.GraphSnapshot{
		Nodes: make(map[string]*attention.GraphNode, len(fs.Nodes)),
		Edges: make(map[string]*attention.GraphEdge, len(fs.Edges)),
	}
	for _, n := range fs.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		snap.Nodes[n.ID] = n
	}
	for _, e := range fs.Edges {
		if e == nil || e.ID == "" {
			continue
		}
		snap.Edges[e.ID] = e
	}
	return snap, nil
}
