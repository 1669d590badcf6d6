package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed messages. Defaults to os.Stdout.
	Out io.Writer
	// Color highlights task names when set.
	Color bool

	mu sync.Mutex
}

// Task prints its `message` argument and keeps the last printed text as the
// `message` entry.
type Task struct {
	module *Module
}

// Entries implements task.Task.
func (t *Task) Entries() map[string]any {
	return map[string]any{"message": ""}
}

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error {
	return tc.RequireArguments("message")
}

// Perform implements task.Task.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	val, err := tc.EvaluateArgument("message")
	if err != nil {
		return err
	}
	text, err := render(val)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Printing message.")
	t.module.print(tc.NodePath(), text)
	return tc.Write("message", text)
}

func (m *Module) print(path, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	label := color.New(color.FgCyan, color.Bold)
	if m.Color {
		label.EnableColor()
	} else {
		label.DisableColor()
	}
	fmt.Fprintf(out, "%s %s\n", label.Sprintf("[%s]", path), text)
}

func render(val cty.Value) (string, error) {
	if val.IsNull() {
		return "(null)", nil
	}
	if val.Type() == cty.String {
		return val.AsString(), nil
	}
	native, err := mhcl.FromCty(val)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(native), nil
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("print", func(def *config.Task) (task.Task, error) {
		return &Task{module: m}, nil
	})
}
