// Package complex provides the container task: it owns a database node and
// performs its children, one after the other or concurrently.
package complex

import (
	"context"
	"fmt"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task performs its children.
type Task struct {
	task.Parent
	parallel bool
}

// New builds a complex task from its definition.
func New(def *config.Task) (task.Task, error) {
	if len(def.Arguments) > 0 {
		return nil, fmt.Errorf("complex tasks take no arguments")
	}
	return &Task{parallel: def.Parallel}, nil
}

// Entries implements task.Task.
func (t *Task) Entries() map[string]any { return nil }

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error { return nil }

// Perform implements task.Task.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	return tc.RunChildren(ctx, t.parallel)
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("complex", New)
}
