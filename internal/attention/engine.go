package attention

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine owns the attention value store and the bank balance. All mutation
// goes through its methods under a single lock, so one engine instance can
// be shared between a cycle runner and inspection handlers.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]AttentionValue
	bank   float64

	// now returns the current time in unix millis. Injected so recency
	// scoring is reproducible in tests.
	now func() int64
}

// New creates an Engine after validating the config. The bank balance is
// seeded from cfg.AttentionBank.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		values: make(map[string]AttentionValue),
		bank:   cfg.AttentionBank,
		now:    func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// SetClock replaces the engine's millisecond clock.
func (e *Engine) SetClock(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now != nil {
		e.now = now
	}
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetAttentionValue stores a value for a node id, clamped to the
// configured bounds.
func (e *Engine) SetAttentionValue(id string, av AttentionValue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[id] = e.clamp(av)
}

// GetAttentionValue returns the stored value for a node id. The second
// return distinguishes "no entry" from a genuinely zero value: forgotten
// and never-seen ids report false.
func (e *Engine) GetAttentionValue(id string) (AttentionValue, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	av, ok := e.values[id]
	return av, ok
}

// Bank returns the current attention bank balance.
func (e *Engine) Bank() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bank
}

// Size returns the number of stored attention values.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.values)
}

// Values returns a copy of the store, keyed by node id.
func (e *Engine) Values() map[string]AttentionValue {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]AttentionValue, len(e.values))
	for id, av := range e.values {
		out[id] = av
	}
	return out
}

// Restore replaces the store contents and bank balance wholesale, e.g.
// from a persisted snapshot. Values are clamped on the way in.
func (e *Engine) Restore(values map[string]AttentionValue, bank float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = make(map[string]AttentionValue, len(values))
	for id, av := range values {
		e.values[id] = e.clamp(av)
	}
	e.bank = bank
}

// clamp forces a value into the configured bounds. Callers hold e.mu.
func (e *Engine) clamp(av AttentionValue) AttentionValue {
	av.STI = clampInt(av.STI, e.cfg.MinSTI, e.cfg.MaxSTI)
	av.LTI = clampInt(av.LTI, 0, e.cfg.MaxLTI)
	if av.VLTI != 0 {
		av.VLTI = 1
	}
	return av
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
