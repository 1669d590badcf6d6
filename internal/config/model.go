package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a measurement.
type Model struct {
	// Excluded replaces the root entry names hidden from listings when set.
	Excluded []string
	// Values are entries stored directly in the root node.
	Values map[string]cty.Value
	// Tasks are the children of the implicit root task.
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	Type string
	Name string
	// Values are entries stored in the node owned by the task. Only tasks
	// owning a node (complex, loop) accept them.
	Values map[string]cty.Value
	// Expose lists entries of the task node made visible to its parent
	// through access exceptions.
	Expose []string
	// Parallel asks a container task to run its children concurrently.
	Parallel bool
	// Arguments are evaluated against the database when the task needs them.
	Arguments map[string]hcl.Expression
	Children  []*Task
}
