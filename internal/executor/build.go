package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/specialistvlad/measgrid/internal/taskdb"
	"github.com/zclconf/go-cty/cty"
)

// rootTask is the implicit container holding the top-level tasks.
type rootTask struct {
	task.Parent
}

func (rootTask) Entries() map[string]any { return nil }

func (rootTask) Check(ctx context.Context, tc *task.Context) error { return nil }

func (rootTask) Perform(ctx context.Context, tc *task.Context) error {
	return tc.RunChildren(ctx, false)
}

// Build creates the task tree and fills the database with its nodes,
// entries and access exceptions.
func (e *Executor) Build(ctx context.Context) (*task.Context, error) {
	ctx, logger := ctxlog.With(ctx, "phase", "build")
	if e.db.Running() {
		return nil, fmt.Errorf("%w: cannot build into a running database", taskdb.ErrInvalidState)
	}
	if e.model.Excluded != nil {
		e.db.SetExcluded(e.model.Excluded...)
	}

	root := &task.Context{Name: taskdb.RootPath, DB: e.db, Task: rootTask{}}
	if err := e.seedValues(root.NodePath(), e.model.Values); err != nil {
		return nil, err
	}
	children, err := e.buildChildren(ctx, root, e.model.Tasks)
	if err != nil {
		return nil, err
	}
	root.Children = children
	logger.Debug("Task tree built.", "top_level_tasks", len(children))
	return root, nil
}

func (e *Executor) buildChildren(ctx context.Context, parent *task.Context, defs []*config.Task) ([]*task.Context, error) {
	children := make([]*task.Context, 0, len(defs))
	for _, def := range defs {
		tc, err := e.buildTask(ctx, parent, def)
		if err != nil {
			return nil, err
		}
		children = append(children, tc)
	}
	return children, nil
}

func (e *Executor) buildTask(ctx context.Context, parent *task.Context, def *config.Task) (*task.Context, error) {
	path := parent.NodePath()
	t, err := e.reg.Build(def)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", path, err)
	}
	tc := &task.Context{Name: def.Name, Path: path, DB: e.db, Def: def, Task: t}
	ctxlog.FromContext(ctx).Debug("Building task.", "task", tc.NodePath(), "type", def.Type)

	entries := t.Entries()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		created, err := e.db.SetValue(path, tc.EntryName(name), entries[name])
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, fmt.Errorf("entry %s of task %s is already defined in %s", tc.EntryName(name), tc.NodePath(), path)
		}
	}

	if !task.IsContainer(t) {
		if err := rejectContainerFields(def); err != nil {
			return nil, &task.Error{Path: tc.NodePath(), Err: err}
		}
		return tc, nil
	}

	taken, err := e.db.Has(path, def.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("node of task %s clashes with entry %s already defined in %s", tc.NodePath(), def.Name, path)
	}
	if err := e.db.CreateNode(path, def.Name); err != nil {
		return nil, err
	}
	if err := e.seedValues(tc.NodePath(), def.Values); err != nil {
		return nil, err
	}
	children, err := e.buildChildren(ctx, tc, def.Children)
	if err != nil {
		return nil, err
	}
	tc.Children = children
	for _, name := range def.Expose {
		if err := e.db.AddAccessException(path, name, tc.NodePath()); err != nil {
			return nil, err
		}
	}
	return tc, nil
}

// seedValues stores static values, sorted by name, in the node at path.
func (e *Executor) seedValues(path string, values map[string]cty.Value) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := mhcl.FromCty(values[name])
		if err != nil {
			return fmt.Errorf("value %s in %s: %w", name, path, err)
		}
		created, err := e.db.SetValue(path, name, v)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("value %s is already defined in %s", name, path)
		}
	}
	return nil
}

func rejectContainerFields(def *config.Task) error {
	switch {
	case len(def.Values) > 0:
		return fmt.Errorf("%s tasks cannot hold values", def.Type)
	case len(def.Children) > 0:
		return fmt.Errorf("%s tasks cannot have child tasks", def.Type)
	case len(def.Expose) > 0:
		return fmt.Errorf("%s tasks have no entries to expose", def.Type)
	case def.Parallel:
		return fmt.Errorf("%s tasks cannot run in parallel", def.Type)
	}
	return nil
}
