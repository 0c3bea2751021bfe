package graphsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/attention"
)

// Neo4jSource reads graph snapshots out of a Neo4j database. Node labels
// become node types, node properties become attention signals, and every
// relationship becomes a weighted edge.
type Neo4jSource struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewNeo4jSource connects a snapshot source to Neo4j.
func NewNeo4jSource(uri, user, password string, logger *zap.Logger) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4jSource{driver: driver, logger: logger}, nil
}

// Close shuts down the Neo4j driver.
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping verifies the Neo4j connection.
func (s *Neo4jSource) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// LoadSnapshot reads all nodes and relationships into one snapshot.
// Missing properties degrade to zero values; a half-populated graph must
// still produce a usable snapshot.
func (s *Neo4jSource) LoadSnapshot(ctx context.Context) (*attention.GraphSnapshot, error) {
	start := time.Now()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	snap := &attention.GraphSnapshot{
		Nodes: make(map[string]*attention.GraphNode),
		Edges: make(map[string]*attention.GraphEdge),
	}

	nodeResult, err := session.Run(ctx,
		`MATCH (n)
		 WHERE n.id IS NOT NULL
		 RETURN n.id AS id, labels(n)[0] AS type,
		        coalesce(n.activation, 0.0) AS activation,
		        coalesce(n.attention, 0.0) AS attention,
		        coalesce(n.last_activation_ms, 0) AS lastActivation,
		        coalesce(n.activation_count, 0) AS activationCount,
		        coalesce(n.system_critical, false) AS systemCritical,
		        n.embedding AS embedding`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	for nodeResult.Next(ctx) {
		rec := nodeResult.Record()
		node := &attention.GraphNode{}
		if v, ok := rec.Get("id"); ok && v != nil {
			node.ID, _ = v.(string)
		}
		if node.ID == "" {
			continue
		}
		if v, ok := rec.Get("type"); ok && v != nil {
			if label, isStr := v.(string); isStr {
				// Labels are conventionally capitalized; node types are not.
				node.Type = strings.ToLower(label)
			}
		}
		node.Attributes = attention.NodeAttributes{
			Activation:       toFloat(rec, "activation"),
			Attention:        toFloat(rec, "attention"),
			LastActivationMs: toInt64(rec, "lastActivation"),
			ActivationCount:  int(toInt64(rec, "activationCount")),
			SystemCritical:   toBool(rec, "systemCritical"),
		}
		if v, ok := rec.Get("embedding"); ok && v != nil {
			if raw, ok := v.([]interface{}); ok {
				emb := make([]float32, 0, len(raw))
				for _, f := range raw {
					if fv, ok := f.(float64); ok {
						emb = append(emb, float32(fv))
					}
				}
				node.Embedding = emb
			}
		}
		snap.Nodes[node.ID] = node
	}
	if err := nodeResult.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	edgeResult, err := session.Run(ctx,
		`MATCH (a)-[r]->(b)
		 WHERE a.id IS NOT NULL AND b.id IS NOT NULL
		 RETURN elementId(r) AS id, a.id AS source, b.id AS target,
		        type(r) AS type, coalesce(r.weight, 0.5) AS weight`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	for edgeResult.Next(ctx) {
		rec := edgeResult.Record()
		edge := &attention.GraphEdge{Weight: toFloat(rec, "weight")}
		if v, ok := rec.Get("id"); ok && v != nil {
			edge.ID, _ = v.(string)
		}
		if v, ok := rec.Get("source"); ok && v != nil {
			edge.Source, _ = v.(string)
		}
		if v, ok := rec.Get("target"); ok && v != nil {
			edge.Target, _ = v.(string)
		}
		if v, ok := rec.Get("type"); ok && v != nil {
			edge.Type, _ = v.(string)
		}
		if edge.ID == "" || edge.Source == "" || edge.Target == "" {
			continue
		}
		snap.Edges[edge.ID] = edge
	}
	if err := edgeResult.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	s.logger.Debug("graph snapshot loaded",
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
		zap.Duration("duration", time.Since(start)))
	return snap, nil
}

func toFloat(rec *neo4j.Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0
}

func toInt64(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func toBool(rec *neo4j.Record, key string) bool {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}
