package attention

import "go.uber.org/zap"

// Forget prunes every stored value whose STI has fallen below the
// forgetting threshold, unless its VLTI flag marks it permanent. Forgotten
// ids read back as absent. Returns the number of entries removed.
func (e *Engine) Forget() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for id, av := range e.values {
		if av.VLTI != 0 {
			continue
		}
		if av.STI < e.cfg.ForgettingThreshold {
			delete(e.values, id)
			removed++
		}
	}
	if removed > 0 {
		e.logger.Debug("forgot low-importance nodes", zap.Int("removed", removed))
	}
	return removed
}
