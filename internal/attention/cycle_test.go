package attention

import "testing"

func TestRunCycleEmptyGraph(t *testing.T) {
	e := newTestEngine(t)

	stats := e.RunCycle(&GraphSnapshot{})

	if stats.Transferred != 0 || stats.RentCollected != 0 || stats.WagesPaid != 0 || stats.Forgotten != 0 {
		t.Errorf("empty cycle did work: %+v", stats)
	}
	if e.Size() != 0 {
		t.Errorf("empty cycle grew the store: %d", e.Size())
	}
}

func TestRunCycleForgetsLowImportance(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("doomed", AttentionValue{STI: -2000})
	e.SetAttentionValue("protected", AttentionValue{STI: -2000, VLTI: 1})
	e.SetAttentionValue("healthy", AttentionValue{STI: 5000, LTI: 200})

	e.RunCycle(&GraphSnapshot{})

	if _, ok := e.GetAttentionValue("doomed"); ok {
		t.Error("sub-threshold node survived the cycle")
	}
	if _, ok := e.GetAttentionValue("protected"); !ok {
		t.Error("VLTI node was forgotten")
	}
	if _, ok := e.GetAttentionValue("healthy"); !ok {
		t.Error("healthy node was forgotten")
	}
}

func TestRunCycleVLTIPermanence(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("keeper", AttentionValue{STI: 5000, VLTI: 1})

	// Enough cycles for decay and rent to drag the STI below any threshold.
	for i := 0; i < 50; i++ {
		e.RunCycle(&GraphSnapshot{})
	}
	if _, ok := e.GetAttentionValue("keeper"); !ok {
		t.Error("VLTI node evicted despite permanence guarantee")
	}
}

func TestRunCycleMovesBank(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("n", AttentionValue{STI: 10000, LTI: 5000})
	before := e.Bank()

	stats := e.RunCycle(&GraphSnapshot{})

	if stats.Bank == before {
		t.Error("bank unchanged across a cycle with live economics")
	}
	if got := e.Bank(); got != stats.Bank {
		t.Errorf("stats bank %f disagrees with engine bank %f", stats.Bank, got)
	}
}

func TestRunCycleOrdering(t *testing.T) {
	e := newTestEngine(t)
	// A node just above the forgetting threshold before decay: if the
	// cycle ran forget before decay it would survive.
	threshold := e.Config().ForgettingThreshold
	e.SetAttentionValue("edge", AttentionValue{STI: threshold})

	e.RunCycle(&GraphSnapshot{})

	// decay shrinks the magnitude of a negative STI toward zero, so the
	// entry moves above the threshold and must survive.
	if threshold < 0 {
		if _, ok := e.GetAttentionValue("edge"); !ok {
			t.Error("decay-then-forget ordering violated")
		}
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.SetAttentionValue("a", AttentionValue{STI: 123, LTI: 456, VLTI: 1})
	e.SetAttentionValue("b", AttentionValue{STI: -9})

	values := e.Values()
	bank := e.Bank()

	e2 := newTestEngine(t)
	e2.Restore(values, bank)

	if e2.Size() != 2 {
		t.Fatalf("restored %d entries, want 2", e2.Size())
	}
	a, _ := e2.GetAttentionValue("a")
	if a != (AttentionValue{STI: 123, LTI: 456, VLTI: 1}) {
		t.Errorf("restored value drifted: %+v", a)
	}
	if e2.Bank() != bank {
		t.Errorf("restored bank %f, want %f", e2.Bank(), bank)
	}
}
