// Package env_vars publishes environment variables in the database. The
// variables are listed by the static `names` argument and each one becomes
// an entry `<task>_<variable>`.
package env_vars

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task reads environment variables.
type Task struct {
	names []string
}

// New builds an env_vars task. The variable names must be known before
// the database is frozen, so the argument cannot reference entries.
func New(def *config.Task) (task.Task, error) {
	expr, ok := def.Arguments["names"]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", "names")
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("names must be static: %w", diags)
	}
	ty := val.Type()
	if val.IsNull() || !(ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) {
		return nil, fmt.Errorf("names must be a list of strings")
	}
	seen := make(map[string]struct{})
	var names []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.IsNull() || v.Type() != cty.String {
			return nil, fmt.Errorf("names must be a list of strings")
		}
		name := v.AsString()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Task{names: names}, nil
}

// Entries implements task.Task. The initial values are read at build time.
func (t *Task) Entries() map[string]any {
	entries := make(map[string]any, len(t.names))
	for _, name := range t.names {
		entries[name] = os.Getenv(name)
	}
	return entries
}

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error { return nil }

// Perform implements task.Task, refreshing every entry.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	for _, name := range t.names {
		if err := tc.Write(name, os.Getenv(name)); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("env_vars", New)
}
