package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/attention"
	"github.com/nidhogg/mentat/internal/graphsource"
)

// Persister saves the attention store after a cycle. Satisfied by
// persist.Store; nil disables persistence.
type Persister interface {
	SaveSnapshot(ctx context.Context, values map[string]attention.AttentionValue, bank float64) (string, error)
}

// Publisher emits cycle telemetry. Satisfied by telemetry.Bus; nil
// disables publishing.
type Publisher interface {
	Publish(ctx context.Context, stats attention.CycleStats) error
}

// Indexer keeps node embeddings searchable. Satisfied by
// vectorstore.Index; nil disables embedding indexing.
type Indexer interface {
	UpsertNode(ctx context.Context, node *attention.GraphNode, av attention.AttentionValue) error
}

// Runner drives the attention engine: every interval it loads a fresh
// graph snapshot, seeds attention for unseen nodes, runs one economic
// cycle, then persists and publishes on a best-effort basis. A started
// cycle always runs to completion; only the wait between cycles is
// cancellable.
type Runner struct {
	engine    *attention.Engine
	source    graphsource.Source
	persister Persister
	publisher Publisher
	indexer   Indexer
	interval  time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	lastStats attention.CycleStats
	lastRun   time.Time
}

// New creates a Runner. persister and publisher may be nil.
func New(engine *attention.Engine, source graphsource.Source, persister Persister, publisher Publisher, interval time.Duration, logger *zap.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:    engine,
		source:    source,
		persister: persister,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// SetIndexer attaches an embedding indexer. Call before Start.
func (r *Runner) SetIndexer(ix Indexer) {
	r.indexer = ix
}

// Start runs cycles until the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("cycle runner started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("cycle runner stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// ForceCycle runs one cycle immediately, bypassing the interval, and
// returns its stats.
func (r *Runner) ForceCycle(ctx context.Context) attention.CycleStats {
	return r.runOnce(ctx)
}

// LastStats returns the stats of the most recent cycle and when it ran.
func (r *Runner) LastStats() (attention.CycleStats, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStats, r.lastRun
}

func (r *Runner) runOnce(ctx context.Context) attention.CycleStats {
	snap, err := r.source.LoadSnapshot(ctx)
	if err != nil {
		// The economy keeps moving on the last known store even when
		// the graph supplier is down.
		r.logger.Warn("snapshot load failed, cycling without graph", zap.Error(err))
		snap = nil
	} else {
		r.engine.Allocate(snap)
	}

	stats := r.engine.RunCycle(snap)

	r.mu.Lock()
	r.lastStats = stats
	r.lastRun = time.Now()
	r.mu.Unlock()

	if r.indexer != nil && snap != nil {
		for id, node := range snap.Nodes {
			if node == nil || len(node.Embedding) == 0 {
				continue
			}
			av, _ := r.engine.GetAttentionValue(id)
			if err := r.indexer.UpsertNode(ctx, node, av); err != nil {
				r.logger.Warn("embedding index update failed", zap.Error(err))
				break
			}
		}
	}
	if r.persister != nil {
		if _, err := r.persister.SaveSnapshot(ctx, r.engine.Values(), r.engine.Bank()); err != nil {
			r.logger.Warn("snapshot persistence failed", zap.Error(err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, stats); err != nil {
			r.logger.Warn("telemetry publish failed", zap.Error(err))
		}
	}
	return stats
}
