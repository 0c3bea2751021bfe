package attention

// AttentionValue is the economic attention triple for a single graph node.
type AttentionValue struct {
	STI  int `json:"sti"`  // short-term importance, MinSTI..MaxSTI
	LTI  int `json:"lti"`  // long-term importance, 0..MaxLTI
	VLTI int `json:"vlti"` // 1 = exempt from forgetting, else 0
}

// NodeAttributes are the raw signals a graph supplier attaches to a node.
// Every field is optional; zero values are safe defaults.
type NodeAttributes struct {
	Activation       float64 `json:"activation,omitempty"`
	Attention        float64 `json:"attention,omitempty"`
	LastActivationMs int64   `json:"last_activation_ms,omitempty"`
	ActivationCount  int     `json:"activation_count,omitempty"`
	SystemCritical   bool    `json:"system_critical,omitempty"`
}

// GraphNode is a read-only node supplied by a graph collaborator.
type GraphNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"` // "concept", "relation", "context", "state", ...
	Attributes NodeAttributes `json:"attributes"`
	Embedding  []float32      `json:"embedding,omitempty"`
}

// GraphEdge connects two nodes with a diffusion weight.
type GraphEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// GraphSnapshot is one immutable view of the graph, passed in wholesale
// per cycle. The engine never mutates it.
type GraphSnapshot struct {
	Nodes map[string]*GraphNode `json:"nodes"`
	Edges map[string]*GraphEdge `json:"edges"`
}

// NodeContext is the optional relevance context for ComputeAttention.
// Only Category and TaskType are recognized; each non-empty recognized
// field adds a flat STI bonus. Anything else a caller might want to pass
// contributes nothing.
type NodeContext struct {
	Category string `json:"category,omitempty"`
	TaskType string `json:"task_type,omitempty"`
}
