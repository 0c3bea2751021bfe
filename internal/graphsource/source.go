package graphsource

import (
	"context"

	"github.com/nidhogg/mentat/internal/attention"
)

// Source supplies immutable graph snapshots for attention cycles. The
// engine never talks to a database itself; a Source is the boundary where
// graph collaborators hand over nodes and edges.
type Source interface {
	LoadSnapshot(ctx context.Context) (*attention.GraphSnapshot, error)
}
