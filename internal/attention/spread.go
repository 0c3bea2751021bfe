package attention

import "go.uber.org/zap"

// incidence is one usable edge from the perspective of a source node.
type incidence struct {
	target string
	weight float64
}

// SpreadImportance diffuses short-term importance along graph edges in a
// single synchronous pass. Source STIs are sampled up front, so the order
// the store iterates in cannot change who sends how much. Only nodes with
// positive sampled STI originate transfers, the per-edge share is
// proportional to edge weight, and the total outflow from one source never
// exceeds SpreadingRate x STI. Returns the total amount transferred.
func (e *Engine) SpreadImportance(snap *GraphSnapshot) int {
	if snap == nil || len(snap.Edges) == 0 {
		return 0
	}

	// Undirected incidence lists; edges with non-positive weight or
	// dangling endpoints carry nothing. Self-loops would transfer back
	// into the source, so they are skipped too.
	incident := make(map[string][]incidence)
	for _, edge := range snap.Edges {
		if edge == nil || edge.Weight <= 0 || edge.Source == edge.Target {
			continue
		}
		if edge.Source == "" || edge.Target == "" {
			continue
		}
		incident[edge.Source] = append(incident[edge.Source], incidence{target: edge.Target, weight: edge.Weight})
		incident[edge.Target] = append(incident[edge.Target], incidence{target: edge.Source, weight: edge.Weight})
	}
	if len(incident) == 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Sample the sources before any mutation.
	sources := make(map[string]int, len(e.values))
	for id, av := range e.values {
		if av.STI > 0 {
			sources[id] = av.STI
		}
	}

	total := 0
	for id, sti := range sources {
		edges := incident[id]
		if len(edges) == 0 {
			continue
		}

		var weightSum float64
		for _, in := range edges {
			weightSum += in.weight
		}

		budget := e.cfg.SpreadingRate * float64(sti)
		sent := 0
		heaviest := 0
		for i, in := range edges {
			if in.weight > edges[heaviest].weight {
				heaviest = i
			}
			amount := int(budget * in.weight / weightSum)
			if amount == 0 {
				continue
			}
			e.transferLocked(id, in.target, amount)
			sent += amount
		}

		// Rounding can swallow the whole budget for tiny sources; a
		// positive source with an edge must still bleed at least one
		// unit so diffusion terminates instead of stalling.
		if sent == 0 && sti >= 1 {
			e.transferLocked(id, edges[heaviest].target, 1)
			sent = 1
		}
		total += sent
	}

	if total > 0 {
		e.logger.Debug("importance spread",
			zap.Int("sources", len(sources)),
			zap.Int("transferred", total))
	}
	return total
}

// transferLocked moves amount STI from src to dst, creating the target
// entry when the store has never seen it. Callers hold e.mu.
func (e *Engine) transferLocked(src, dst string, amount int) {
	from := e.values[src]
	from.STI = clampInt(from.STI-amount, e.cfg.MinSTI, e.cfg.MaxSTI)
	e.values[src] = from

	to := e.values[dst] // zero value when absent
	to.STI = clampInt(to.STI+amount, e.cfg.MinSTI, e.cfg.MaxSTI)
	e.values[dst] = to
}
