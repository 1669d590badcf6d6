// Package formula provides the formula task: each argument is evaluated
// against the database and published as an entry of the same name.
package formula

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/measgrid/internal/config"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task evaluates its arguments.
type Task struct {
	names []string
}

// New builds a formula task from its definition.
func New(def *config.Task) (task.Task, error) {
	if len(def.Arguments) == 0 {
		return nil, fmt.Errorf("formula tasks need at least one argument")
	}
	names := make([]string, 0, len(def.Arguments))
	for name := range def.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Task{names: names}, nil
}

// Entries implements task.Task. Results are unknown until performed.
func (t *Task) Entries() map[string]any {
	entries := make(map[string]any, len(t.names))
	for _, name := range t.names {
		entries[name] = nil
	}
	return entries
}

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error {
	return tc.RequireArguments()
}

// Perform implements task.Task. Arguments are published in name order.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	for _, name := range t.names {
		val, err := tc.EvaluateArgument(name)
		if err != nil {
			return err
		}
		native, err := mhcl.FromCty(val)
		if err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		if err := tc.Write(name, native); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("formula", New)
}
