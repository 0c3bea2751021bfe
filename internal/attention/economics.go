package attention

import (
	"math"

	"go.uber.org/zap"
)

// Scaling for the STI computation. Activation and attention are [0,1]
// signals; activation history saturates so a chatty node cannot buy
// unbounded salience.
const (
	stiActivationScale = 800.0
	stiAttentionScale  = 600.0
	stiCountBoost      = 20
	stiCountCap        = 50
	stiContextBonus    = 200

	// Half-life of the recency factor, in milliseconds. A node last
	// activated six hours ago keeps half of its activity-derived STI.
	recencyHalfLifeMs = 6 * 60 * 60 * 1000

	ltiCountBoost = 10
	ltiCountCap   = 100

	// Stored values with LTI above this cut earn wages each cycle.
	wageLTICut = 1000
)

// ltiTypeBase maps a node type to its base long-term importance. Concepts
// outrank contexts, states and relations; unknown types get the floor.
var ltiTypeBase = map[string]int{
	"concept":  400,
	"context":  320,
	"state":    260,
	"relation": 200,
}

const ltiDefaultBase = 120

// ComputeAttention derives an AttentionValue from a node's current signals.
// Pure with respect to the store: nothing is written. Missing attributes
// fall back to zero values and the result always satisfies the bounds
// invariants, however extreme the inputs.
func (e *Engine) ComputeAttention(node *GraphNode, nctx *NodeContext) AttentionValue {
	if node == nil {
		return e.clamp(AttentionValue{})
	}
	attrs := node.Attributes

	activity := attrs.Activation*stiActivationScale + attrs.Attention*stiAttentionScale
	count := attrs.ActivationCount
	if count < 0 {
		count = 0
	}
	if count > stiCountCap {
		count = stiCountCap
	}
	activity += float64(count * stiCountBoost)

	// Recency decays the activity-derived portion monotonically with age.
	age := e.clockNow() - attrs.LastActivationMs
	if age < 0 {
		age = 0
	}
	recency := float64(recencyHalfLifeMs) / float64(recencyHalfLifeMs+age)

	raw := activity * recency
	if nctx != nil {
		if nctx.Category != "" {
			raw += stiContextBonus
		}
		if nctx.TaskType != "" {
			raw += stiContextBonus
		}
	}

	lti := ltiDefaultBase
	if base, ok := ltiTypeBase[node.Type]; ok {
		lti = base
	}
	history := attrs.ActivationCount
	if history < 0 {
		history = 0
	}
	if history > ltiCountCap {
		history = ltiCountCap
	}
	lti += history * ltiCountBoost

	av := AttentionValue{STI: saturatingInt(raw, e.cfg.MinSTI, e.cfg.MaxSTI), LTI: lti}
	if attrs.SystemCritical {
		av.VLTI = 1
	}
	return e.clamp(av)
}

// Stimulate computes a node's attention and stores it, creating the entry
// on first sight or replacing a stale one. A nil node stores nothing.
func (e *Engine) Stimulate(node *GraphNode, nctx *NodeContext) AttentionValue {
	av := e.ComputeAttention(node, nctx)
	if node == nil || node.ID == "" {
		return av
	}
	e.mu.Lock()
	e.values[node.ID] = av
	e.mu.Unlock()
	return av
}

// Allocate seeds attention values for every snapshot node the store has
// not seen yet. Existing entries keep their accumulated economics.
func (e *Engine) Allocate(snap *GraphSnapshot) int {
	if snap == nil {
		return 0
	}
	created := 0
	for id, node := range snap.Nodes {
		if node == nil {
			continue
		}
		if _, ok := e.GetAttentionValue(id); ok {
			continue
		}
		e.Stimulate(node, nil)
		created++
	}
	if created > 0 {
		e.logger.Debug("allocated attention for new nodes", zap.Int("created", created))
	}
	return created
}

// CollectRent taxes every positive-STI value by RentRate and credits the
// bank with the sum. Non-positive values are untouched. Returns the total
// rent collected.
func (e *Engine) CollectRent() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for id, av := range e.values {
		if av.STI <= 0 {
			continue
		}
		rent := int(e.cfg.RentRate * float64(av.STI))
		if rent <= 0 {
			continue
		}
		av.STI -= rent
		e.values[id] = av
		total += rent
	}
	e.bank += float64(total)
	return total
}

// PayWages rewards every value whose LTI clears the high-LTI cut with
// WageRate x LTI of STI, debiting the bank. A wage that clamps at MaxSTI
// only debits what the node actually received, so no attention leaks out
// of the economy. Returns the total paid.
func (e *Engine) PayWages() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for id, av := range e.values {
		if av.LTI <= wageLTICut {
			continue
		}
		wage := int(e.cfg.WageRate * float64(av.LTI))
		if wage <= 0 {
			continue
		}
		before := av.STI
		av.STI = clampInt(av.STI+wage, e.cfg.MinSTI, e.cfg.MaxSTI)
		paid := av.STI - before
		if paid <= 0 {
			continue
		}
		e.values[id] = av
		total += paid
	}
	e.bank -= float64(total)
	return total
}

// ApplyDecay multiplies every stored STI and LTI by DecayRate, truncating
// toward zero so signs are preserved. Returns the number of entries whose
// value changed.
func (e *Engine) ApplyDecay() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := 0
	for id, av := range e.values {
		next := av
		next.STI = int(float64(av.STI) * e.cfg.DecayRate)
		next.LTI = int(float64(av.LTI) * e.cfg.DecayRate)
		if next != av {
			e.values[id] = next
			changed++
		}
	}
	return changed
}

// saturatingInt converts a raw float score to an int inside [lo, hi].
// Infinities and overflow pin to the bounds; NaN degrades to zero rather
// than poisoning the store.
func saturatingInt(v float64, lo, hi int) int {
	if math.IsNaN(v) {
		return clampInt(0, lo, hi)
	}
	if v >= float64(hi) {
		return hi
	}
	if v <= float64(lo) {
		return lo
	}
	return int(v)
}

func (e *Engine) clockNow() int64 {
	e.mu.RLock()
	now := e.now
	e.mu.RUnlock()
	return now()
}
