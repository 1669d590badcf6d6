package task

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/taskdb"
	"golang.org/x/sync/errgroup"
)

// Context binds a task to its place in the tree and to the database.
type Context struct {
	// Name is the task name.
	Name string
	// Path is the node holding the task entries, i.e. the node of the parent
	// task. It is empty for the root task.
	Path     string
	DB       *taskdb.Database
	Def      *config.Task
	Task     Task
	Children []*Context

	mu      sync.Mutex
	indexes map[string]int
}

// NodePath is the path of the node owned by the task. For tasks that are not
// containers it only names the task.
func (tc *Context) NodePath() string {
	if tc.Path == "" {
		return taskdb.RootPath
	}
	return taskdb.JoinPath(tc.Path, tc.Name)
}

// EntryName is the database name of one of the task entries.
func (tc *Context) EntryName(entry string) string {
	return tc.Name + "_" + entry
}

// Write stores an entry of the task.
func (tc *Context) Write(entry string, value any) error {
	_, err := tc.DB.SetValue(tc.Path, tc.EntryName(entry), value)
	return err
}

// Argument returns the raw expression of an argument.
func (tc *Context) Argument(name string) (hcl.Expression, bool) {
	if tc.Def == nil {
		return nil, false
	}
	expr, ok := tc.Def.Arguments[name]
	return expr, ok
}

// ArgumentNames returns the sorted names of the task arguments.
func (tc *Context) ArgumentNames() []string {
	if tc.Def == nil {
		return nil
	}
	names := make([]string, 0, len(tc.Def.Arguments))
	for name := range tc.Def.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the values of the given entries as seen from the task.
// While running, flat indexes are resolved once and cached.
func (tc *Context) Lookup(names []string) (map[string]any, error) {
	if !tc.DB.Running() {
		values := make(map[string]any, len(names))
		for _, name := range names {
			v, err := tc.DB.GetValue(tc.Path, name)
			if err != nil {
				return nil, err
			}
			values[name] = v
		}
		return values, nil
	}

	indexes, err := tc.resolveIndexes(names)
	if err != nil {
		return nil, err
	}
	flat, err := tc.DB.GetValuesByIndex(indexes)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(names))
	for i, name := range names {
		values[name] = flat[i]
	}
	return values, nil
}

func (tc *Context) resolveIndexes(names []string) ([]int, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	var missing []string
	for _, name := range names {
		if _, ok := tc.indexes[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		found, err := tc.DB.GetEntriesIndexes(tc.Path, missing)
		if err != nil {
			return nil, err
		}
		if tc.indexes == nil {
			tc.indexes = make(map[string]int, len(found))
		}
		for name, idx := range found {
			tc.indexes[name] = idx
		}
	}
	indexes := make([]int, len(names))
	for i, name := range names {
		indexes[i] = tc.indexes[name]
	}
	return indexes, nil
}

// CheckReferences verifies that every entry referenced by the expressions is
// visible from the task.
func (tc *Context) CheckReferences(exprs ...hcl.Expression) error {
	names := VariableNames(exprs...)
	if len(names) == 0 {
		return nil
	}
	accessible, err := tc.DB.ListAccessibleEntries(tc.Path)
	if err != nil {
		return err
	}
	visible := make(map[string]struct{}, len(accessible))
	for _, name := range accessible {
		visible[name] = struct{}{}
	}
	var unknown []string
	for _, name := range names {
		if _, ok := visible[name]; ok {
			continue
		}
		// Excluded entries are hidden from listings but still readable.
		if _, err := tc.DB.GetValue(tc.Path, name); err == nil {
			continue
		}
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("references unknown database entries: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// RequireArguments checks that the named arguments are present and that
// every argument only calls known functions and references visible entries.
func (tc *Context) RequireArguments(required ...string) error {
	for _, name := range required {
		if _, ok := tc.Argument(name); !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	names := tc.ArgumentNames()
	exprs := make([]hcl.Expression, 0, len(names))
	for _, name := range names {
		expr, _ := tc.Argument(name)
		exprs = append(exprs, expr)
	}
	if err := checkFunctions(exprs...); err != nil {
		return err
	}
	return tc.CheckReferences(exprs...)
}

// RunChildren performs the children of the task, one after the other or
// all at once. The first failure cancels the remaining children.
func (tc *Context) RunChildren(ctx context.Context, parallel bool) error {
	if !parallel {
		for _, child := range tc.Children {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Run(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, child := range tc.Children {
		g.Go(func() error {
			return Run(gctx, child)
		})
	}
	return g.Wait()
}

// baseLoggerKey holds the logger in use before the first task started, so
// that nested tasks carry a single task attribute.
type baseLoggerKey struct{}

// Run performs a single task with a logger naming it.
func Run(ctx context.Context, tc *Context) error {
	base, ok := ctx.Value(baseLoggerKey{}).(*slog.Logger)
	if !ok {
		base = ctxlog.FromContext(ctx)
		ctx = context.WithValue(ctx, baseLoggerKey{}, base)
	}
	logger := base.With("task", tc.NodePath())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Task started.")
	if err := tc.Task.Perform(ctx, tc); err != nil {
		logger.Debug("Task failed.", "error", err)
		return wrap(tc.NodePath(), err)
	}
	logger.Debug("Task finished.")
	return nil
}

// Check validates a task and its descendants, returning one error per
// failing task.
func Check(ctx context.Context, tc *Context) []error {
	var errs []error
	if err := tc.Task.Check(ctx, tc); err != nil {
		errs = append(errs, wrap(tc.NodePath(), err))
	}
	for _, child := range tc.Children {
		errs = append(errs, Check(ctx, child)...)
	}
	return errs
}
