package attention

import (
	"time"

	"go.uber.org/zap"
)

// CycleStats summarizes one economic cycle.
type CycleStats struct {
	Transferred   int           `json:"transferred"`
	RentCollected int           `json:"rent_collected"`
	WagesPaid     int           `json:"wages_paid"`
	Decayed       int           `json:"decayed"`
	Forgotten     int           `json:"forgotten"`
	Nodes         int           `json:"nodes"`
	Bank          float64       `json:"bank"`
	Duration      time.Duration `json:"duration"`
}

// RunCycle executes one full economic cycle against a graph snapshot, in
// fixed order: spread, rent, wages, decay, forget. Each step is total, so
// an empty snapshot or empty store is a no-op rather than an error. A
// cycle runs to completion once started.
func (e *Engine) RunCycle(snap *GraphSnapshot) CycleStats {
	start := time.Now()

	stats := CycleStats{
		Transferred:   e.SpreadImportance(snap),
		RentCollected: e.CollectRent(),
		WagesPaid:     e.PayWages(),
	}
	stats.Decayed = e.ApplyDecay()
	stats.Forgotten = e.Forget()
	stats.Nodes = e.Size()
	stats.Bank = e.Bank()
	stats.Duration = time.Since(start)

	e.logger.Info("attention cycle complete",
		zap.Int("transferred", stats.Transferred),
		zap.Int("rent", stats.RentCollected),
		zap.Int("wages", stats.WagesPaid),
		zap.Int("forgotten", stats.Forgotten),
		zap.Int("nodes", stats.Nodes),
		zap.Float64("bank", stats.Bank),
		zap.Duration("duration", stats.Duration))
	return stats
}
