package attention

import "testing"

func pairSnapshot(weight float64) *GraphSnapshot {
	return &GraphSnapshot{
		Nodes: map[string]*GraphNode{
			"a": {ID: "a", Type: "concept"},
			"b": {ID: "b", Type: "concept"},
		},
		Edges: map[string]*GraphEdge{
			"e1": {ID: "e1", Source: "a", Target: "b", Type: "related", Weight: weight},
		},
	}
}

func TestSpreadTransfersBetweenNeighbors(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 5000})
	e.SetAttentionValue("b", AttentionValue{STI: 1000})

	moved := e.SpreadImportance(pairSnapshot(0.8))

	a, _ := e.GetAttentionValue("a")
	b, _ := e.GetAttentionValue("b")
	if a.STI >= 5000 {
		t.Errorf("source did not lose STI: %d", a.STI)
	}
	if b.STI <= 1000 {
		t.Errorf("target did not gain STI: %d", b.STI)
	}
	if moved <= 0 {
		t.Errorf("reported no transfer: %d", moved)
	}
	// Diffusion only moves STI around, it never mints or burns it.
	if a.STI+b.STI != 6000 {
		t.Errorf("transfer not conserved: a=%d b=%d", a.STI, b.STI)
	}
}

func TestSpreadNonPositiveSourceSendsNothing(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: -3000})
	e.SetAttentionValue("b", AttentionValue{STI: 100})

	e.SpreadImportance(pairSnapshot(1.0))

	// a sent nothing; b is itself a positive source, so its own outflow
	// toward a is the only movement allowed here.
	b, _ := e.GetAttentionValue("b")
	if b.STI > 100 {
		t.Errorf("neighbor gained from non-positive source: %d", b.STI)
	}
	a, _ := e.GetAttentionValue("a")
	if a.STI < -3000 {
		t.Errorf("non-positive source lost more STI: %d", a.STI)
	}
}

func TestSpreadBudgetBound(t *testing.T) {
	e := newTestEngine(t)
	cfg := e.Config()
	e.SetAttentionValue("hub", AttentionValue{STI: 10000})

	snap := &GraphSnapshot{
		Nodes: map[string]*GraphNode{
			"hub": {ID: "hub"}, "s1": {ID: "s1"}, "s2": {ID: "s2"}, "s3": {ID: "s3"},
		},
		Edges: map[string]*GraphEdge{
			"e1": {ID: "e1", Source: "hub", Target: "s1", Weight: 0.9},
			"e2": {ID: "e2", Source: "hub", Target: "s2", Weight: 0.5},
			"e3": {ID: "e3", Source: "s3", Target: "hub", Weight: 0.2},
		},
	}
	e.SpreadImportance(snap)

	hub, _ := e.GetAttentionValue("hub")
	maxLoss := int(cfg.SpreadingRate * 10000)
	if loss := 10000 - hub.STI; loss > maxLoss {
		t.Errorf("hub lost %d, budget is %d", loss, maxLoss)
	}
	if loss := 10000 - hub.STI; loss <= 0 {
		t.Errorf("hub with incident edges lost nothing")
	}
}

func TestSpreadCreatesTargetEntries(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 5000})

	e.SpreadImportance(pairSnapshot(1.0))

	b, ok := e.GetAttentionValue("b")
	if !ok {
		t.Fatal("target entry was not created")
	}
	if b.STI <= 0 {
		t.Errorf("created target got no STI: %d", b.STI)
	}
}

func TestSpreadTinySourceStillBleeds(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 3}) // rate x 3 truncates to 0

	e.SpreadImportance(pairSnapshot(1.0))

	a, _ := e.GetAttentionValue("a")
	if a.STI >= 3 {
		t.Errorf("tiny positive source with an edge did not decrease: %d", a.STI)
	}
}

func TestSpreadIgnoresUselessEdges(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 5000})

	snap := &GraphSnapshot{
		Nodes: map[string]*GraphNode{"a": {ID: "a"}},
		Edges: map[string]*GraphEdge{
			"neg":  {ID: "neg", Source: "a", Target: "b", Weight: -2},
			"zero": {ID: "zero", Source: "a", Target: "c", Weight: 0},
			"self": {ID: "self", Source: "a", Target: "a", Weight: 1},
		},
	}
	if moved := e.SpreadImportance(snap); moved != 0 {
		t.Errorf("moved %d along unusable edges", moved)
	}
	a, _ := e.GetAttentionValue("a")
	if a.STI != 5000 {
		t.Errorf("source changed with no usable edges: %d", a.STI)
	}
}

func TestSpreadEmptySnapshot(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 5000})

	if moved := e.SpreadImportance(&GraphSnapshot{}); moved != 0 {
		t.Errorf("moved %d on empty snapshot", moved)
	}
	if moved := e.SpreadImportance(nil); moved != 0 {
		t.Errorf("moved %d on nil snapshot", moved)
	}
}
