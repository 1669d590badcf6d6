// Package loop provides the loop task: a container performing its children
// once per element of its `iterable` argument. Before each iteration it
// publishes `<name>_index` and `<name>_value`.
package loop

import (
	"context"
	"fmt"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task iterates over a collection.
type Task struct {
	task.Parent
	parallel bool
}

// New builds a loop task from its definition.
func New(def *config.Task) (task.Task, error) {
	return &Task{parallel: def.Parallel}, nil
}

// Entries implements task.Task.
func (t *Task) Entries() map[string]any {
	return map[string]any{"index": 0, "value": nil}
}

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error {
	if err := tc.RequireArguments("iterable"); err != nil {
		return err
	}
	val, ok, err := tc.Preview("iterable")
	if err != nil {
		return err
	}
	if ok {
		_, err = elements(val)
	}
	return err
}

// Perform implements task.Task.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	logger := ctxlog.FromContext(ctx)
	val, err := tc.EvaluateArgument("iterable")
	if err != nil {
		return err
	}
	elems, err := elements(val)
	if err != nil {
		return err
	}
	logger.Debug("Loop starting.", "iterations", len(elems))
	for i, elem := range elems {
		if err := ctx.Err(); err != nil {
			return err
		}
		native, err := mhcl.FromCty(elem)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		if err := tc.Write("index", i); err != nil {
			return err
		}
		if err := tc.Write("value", native); err != nil {
			return err
		}
		if err := tc.RunChildren(ctx, t.parallel); err != nil {
			return err
		}
	}
	return nil
}

func elements(val cty.Value) ([]cty.Value, error) {
	ty := val.Type()
	if val.IsNull() || !(ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) {
		return nil, fmt.Errorf("iterable must be a list, got %s", ty.FriendlyName())
	}
	var elems []cty.Value
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		elems = append(elems, v)
	}
	return elems, nil
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("loop", New)
}
