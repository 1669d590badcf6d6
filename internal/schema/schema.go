// Package schema holds the gohcl-decodable structures of a measurement file.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Arguments represents the content of the 'arguments' block within a task.
// Its attributes are kept as raw expressions.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Task represents a `task` block. Tasks nest to form the measurement tree.
type Task struct {
	Type      string         `hcl:"type,label"`
	Name      string         `hcl:"name,label"`
	Values    hcl.Expression `hcl:"values,optional"`
	Expose    []string       `hcl:"expose,optional"`
	Parallel  bool           `hcl:"parallel,optional"`
	Arguments *Arguments     `hcl:"arguments,block"`
	Tasks     []*Task        `hcl:"task,block"`
}

// File represents the top-level structure of a measurement file.
type File struct {
	Exclude []string       `hcl:"exclude,optional"`
	Values  hcl.Expression `hcl:"values,optional"`
	Tasks   []*Task        `hcl:"task,block"`
}
