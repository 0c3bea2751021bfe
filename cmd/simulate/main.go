package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/admission"
	"github.com/nidhogg/mentat/internal/attention"
	"github.com/nidhogg/mentat/internal/graphsource"
)

// taskBatch is the on-disk shape of a scheduling request.
type taskBatch struct {
	Tasks     []*admission.Task        `json:"tasks"`
	Available admission.ResourceVector `json:"available"`
}

func main() {
	graphPath := flag.String("graph", "configs/graph.json", "graph snapshot JSON file")
	tasksPath := flag.String("tasks", "", "optional task batch JSON file to schedule after the cycles")
	cycles := flag.Int("cycles", 10, "number of economic cycles to run")
	top := flag.Int("top", 10, "attention entries to print")
	flag.Parse()

	logger := zap.NewNop()

	engine, err := attention.New(attention.DefaultConfig(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}

	source := graphsource.NewFileSource(*graphPath)
	snap, err := source.LoadSnapshot(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load graph: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mentat simulator: %d nodes, %d edges, %d cycles\n",
		len(snap.Nodes), len(snap.Edges), *cycles)
	fmt.Printf("Opening bank balance: %.0f\n", engine.Bank())
	fmt.Println("---")

	engine.Allocate(snap)
	for i := 0; i < *cycles; i++ {
		stats := engine.RunCycle(snap)
		fmt.Printf("cycle %2d: transferred=%-6d rent=%-6d wages=%-6d forgotten=%-4d nodes=%-5d bank=%.0f\n",
			i+1, stats.Transferred, stats.RentCollected, stats.WagesPaid,
			stats.Forgotten, stats.Nodes, stats.Bank)
	}

	printTop(engine, *top)

	if *tasksPath != "" {
		scheduleBatch(engine, *tasksPath)
	}
}

func printTop(engine *attention.Engine, top int) {
	type entry struct {
		id string
		av attention.AttentionValue
	}
	var entries []entry
	for id, av := range engine.Values() {
		entries = append(entries, entry{id, av})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].av.STI != entries[j].av.STI {
			return entries[i].av.STI > entries[j].av.STI
		}
		return entries[i].id < entries[j].id
	})
	if len(entries) > top {
		entries = entries[:top]
	}

	fmt.Println("---")
	fmt.Printf("Top %d attention values:\n", len(entries))
	for _, e := range entries {
		marker := " "
		if e.av.VLTI == 1 {
			marker = "*"
		}
		fmt.Printf("  %s %-24s sti=%-7d lti=%d\n", marker, e.id, e.av.STI, e.av.LTI)
	}
}

func scheduleBatch(engine *attention.Engine, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read tasks: %v\n", err)
		os.Exit(1)
	}
	var batch taskBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		fmt.Fprintf(os.Stderr, "parse tasks: %v\n", err)
		os.Exit(1)
	}

	scheduler := admission.New(zap.NewNop())
	result := scheduler.Schedule(batch.Tasks, batch.Available)

	fmt.Println("---")
	fmt.Printf("Schedule: %d/%d tasks admitted, %.1f%% utilization\n",
		len(result.Admitted), len(batch.Tasks), result.ResourceUtilizationPercent)
	for _, t := range result.Admitted {
		sti := "-"
		if av, ok := engine.GetAttentionValue(t.NodeID); ok {
			sti = fmt.Sprintf("%d", av.STI)
		}
		fmt.Printf("  %-20s priority=%-6.1f node=%s sti=%s\n", t.ID, t.Priority, t.NodeID, sti)
	}
}
