package admission

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Scheduler admits prioritized tasks into a fixed resource budget. Greedy,
// priority-first-fit, single pass: not optimal bin packing, but O(n log n)
// and predictable for batches in the thousands.
type Scheduler struct {
	logger *zap.Logger
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Schedule walks the tasks in priority order (stable: equal priorities
// keep their input order) and admits each task whose requirements fit the
// remaining budget on every axis. Tasks that do not fit are skipped, not
// blocking; so are tasks with a negative requirement axis. A
// zero-requirement task always fits. The input slice is not reordered.
func (s *Scheduler) Schedule(tasks []*Task, available ResourceVector) *Result {
	start := time.Now()

	ordered := make([]*Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	remaining := available
	var admittedTotal float64
	result := &Result{Admitted: make([]*Task, 0, len(ordered))}

	for _, t := range ordered {
		if t == nil || !t.Resources.nonNegative() {
			continue
		}
		if !t.Resources.Fits(remaining) {
			continue
		}
		remaining = remaining.Sub(t.Resources)
		admittedTotal += t.Resources.Total()
		result.Admitted = append(result.Admitted, t)
	}

	if total := available.Total(); total > 0 {
		result.ResourceUtilizationPercent = admittedTotal / total * 100
	}

	s.logger.Debug("schedule computed",
		zap.Int("offered", len(tasks)),
		zap.Int("admitted", len(result.Admitted)),
		zap.Float64("utilization_pct", result.ResourceUtilizationPercent),
		zap.Duration("duration", time.Since(start)))
	return result
}
