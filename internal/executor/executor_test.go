package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/measgrid/internal/config"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/specialistvlad/measgrid/internal/taskdb"
	"github.com/specialistvlad/measgrid/modules/complex"
	"github.com/specialistvlad/measgrid/modules/formula"
	"github.com/specialistvlad/measgrid/modules/loop"
	"github.com/specialistvlad/measgrid/modules/sleep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string) *config.Model {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(src), 0644))
	model, err := mhcl.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	return model
}

func newExecutor(t *testing.T, src string) (*Executor, *taskdb.Database) {
	t.Helper()
	reg := registry.New()
	for _, m := range []registry.Module{&complex.Module{}, &loop.Module{}, &formula.Module{}, &sleep.Module{}} {
		m.Register(reg)
	}
	db := taskdb.New()
	return New(reg, db, load(t, src)), db
}

func TestExecute_FormulaChain(t *testing.T) {
	e, db := newExecutor(t, `
values = { x = 2 }

task "formula" "f" {
  arguments {
    y = x * 3
  }
}

task "formula" "g" {
  arguments {
    z = f_y + 1
  }
}
`)
	require.NoError(t, e.Execute(context.Background()))
	require.True(t, db.Running())

	v, err := db.GetValue("root", "g_z")
	require.NoError(t, err)
	assert.Equal(t, float64(7), v)
}

func TestExecute_LoopPublishesIndexAndValue(t *testing.T) {
	e, db := newExecutor(t, `
task "loop" "sweep" {
  arguments {
    iterable = [1, 2, 3]
  }

  task "formula" "sq" {
    arguments {
      v = sweep_value * sweep_value
    }
  }
}
`)
	require.NoError(t, e.Execute(context.Background()))

	index, err := db.GetValue("root", "sweep_index")
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	v, err := db.GetValue("root/sweep", "sq_v")
	require.NoError(t, err)
	assert.Equal(t, float64(9), v)
}

func TestExecute_ExposedEntryIsVisibleToSiblings(t *testing.T) {
	e, db := newExecutor(t, `
task "complex" "grp" {
  expose = ["inner_v"]
  values = { k = 5 }

  task "formula" "inner" {
    arguments {
      v = k
    }
  }
}

task "formula" "after" {
  arguments {
    w = inner_v * 2
  }
}
`)
	require.NoError(t, e.Execute(context.Background()))

	v, err := db.GetValue("root", "after_w")
	require.NoError(t, err)
	assert.Equal(t, float64(10), v)
}

func TestBuild_SeedsEntriesInDeclarationOrder(t *testing.T) {
	e, db := newExecutor(t, `
values = { a = 1 }

task "formula" "f" {
  arguments {
    y = a
    x = a
  }
}

task "complex" "grp" {
  values = { b = true }
}
`)
	_, err := e.Build(context.Background())
	require.NoError(t, err)

	values, err := db.ListAllValues("root")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"root/a":     float64(1),
		"root/f_x":   nil,
		"root/f_y":   nil,
		"root/grp/b": true,
	}, values)

	require.NoError(t, db.PrepareForRunning())
	indexes, err := db.GetEntriesIndexes("root", []string{"a", "f_x", "f_y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "f_x": 1, "f_y": 2}, indexes)
}

func TestCheck_ReportsEveryFailingTask(t *testing.T) {
	e, db := newExecutor(t, `
task "formula" "f" {
  arguments {
    y = nope
  }
}

task "sleep" "s" {
  arguments {
    time = -1
  }
}
`)
	err := e.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task root/f: references unknown database entries: nope")
	assert.Contains(t, err.Error(), "task root/s: time must be non-negative")
	assert.False(t, db.Running(), "a failed check must leave the database editable")

	var te *task.Error
	assert.True(t, errors.As(err, &te))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "values on a leaf task",
			src: `
task "formula" "f" {
  values = { a = 1 }
  arguments {
    y = 1
  }
}
`,
			wantErr: "formula tasks cannot hold values",
		},
		{
			name: "parallel leaf task",
			src: `
task "sleep" "s" {
  parallel = true
  arguments {
    time = 0
  }
}
`,
			wantErr: "sleep tasks cannot run in parallel",
		},
		{
			name: "entry clashes with a value",
			src: `
values = { f_y = 1 }

task "formula" "f" {
  arguments {
    y = 1
  }
}
`,
			wantErr: "entry f_y of task root/f is already defined in root",
		},
		{
			name: "container clashes with a value",
			src: `
values = { c = 5 }

task "complex" "c" {}
`,
			wantErr: "node of task root/c clashes with entry c already defined in root",
		},
		{
			name: "container clashes with a sibling entry",
			src: `
task "complex" "grp" {
  task "formula" "f" {
    arguments {
      y = 1
    }
  }
  task "complex" "f_y" {}
}
`,
			wantErr: "node of task root/grp/f_y clashes with entry f_y already defined in root/grp",
		},
		{
			name: "unknown task type",
			src: `
task "teleport" "t" {
}
`,
			wantErr: "unknown task type 'teleport'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newExecutor(t, tc.src)
			_, err := e.Build(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuild_ContainerNameKeepsExistingValue(t *testing.T) {
	e, db := newExecutor(t, `
values = { c = 5 }

task "complex" "c" {}
`)
	_, err := e.Build(context.Background())
	require.Error(t, err)

	v, err := db.GetValue("root", "c")
	require.NoError(t, err)
	assert.Equal(t, float64(5), v)
}

func TestPerform_DanglingExposureFailsFreeze(t *testing.T) {
	e, db := newExecutor(t, `
task "complex" "grp" {
  expose = ["missing"]
}
`)
	err := e.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, taskdb.ErrEntryNotFound)
	assert.False(t, db.Running())
}

func TestPerform_ParallelFailureCancelsSiblings(t *testing.T) {
	e, _ := newExecutor(t, `
values = { x = -1 }

task "complex" "grp" {
  parallel = true

  task "sleep" "long" {
    arguments {
      time = 30
    }
  }

  task "formula" "bad" {
    arguments {
      y = sqrt(x)
    }
  }
}
`)
	start := time.Now()
	err := e.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task root/grp/bad")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestPerform_RespectsCancellation(t *testing.T) {
	e, _ := newExecutor(t, `
task "sleep" "long" {
  arguments {
    time = 30
  }
}
`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := e.Execute(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
