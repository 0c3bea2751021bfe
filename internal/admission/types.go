package admission

// ResourceVector is a requirement or budget across the four scheduled
// resource axes. All components are non-negative.
type ResourceVector struct {
	CPU       float64 `json:"cpu"`
	Memory    float64 `json:"memory"`
	Bandwidth float64 `json:"bandwidth"`
	Storage   float64 `json:"storage"`
}

// Fits reports whether r fits entirely within the budget on every axis.
func (r ResourceVector) Fits(budget ResourceVector) bool {
	return r.CPU <= budget.CPU &&
		r.Memory <= budget.Memory &&
		r.Bandwidth <= budget.Bandwidth &&
		r.Storage <= budget.Storage
}

// nonNegative reports whether every axis is >= 0. A requirement with a
// negative axis would inflate the remaining budget when subtracted.
func (r ResourceVector) nonNegative() bool {
	return r.CPU >= 0 && r.Memory >= 0 && r.Bandwidth >= 0 && r.Storage >= 0
}

// Sub returns budget minus r, component-wise.
func (r ResourceVector) Sub(other ResourceVector) ResourceVector {
	return ResourceVector{
		CPU:       r.CPU - other.CPU,
		Memory:    r.Memory - other.Memory,
		Bandwidth: r.Bandwidth - other.Bandwidth,
		Storage:   r.Storage - other.Storage,
	}
}

// Total sums all four axes.
func (r ResourceVector) Total() float64 {
	return r.CPU + r.Memory + r.Bandwidth + r.Storage
}

// Task is one schedulable unit of work tied to a graph node.
// Dependencies are carried through for callers that track them, but the
// admission pass does not order by them.
type Task struct {
	ID            string         `json:"id"`
	NodeID        string         `json:"node_id"`
	Priority      float64        `json:"priority"`
	EstimatedCost float64        `json:"estimated_cost"`
	Resources     ResourceVector `json:"resources"`
	Dependencies  []string       `json:"dependencies,omitempty"`
}

// Result is the outcome of one Schedule call.
type Result struct {
	Admitted                   []*Task `json:"admitted"`
	ResourceUtilizationPercent float64 `json:"resource_utilization_percent"`
}
