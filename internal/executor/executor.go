// Package executor turns a measurement model into a task tree backed by a
// taskdb.Database and performs it.
//
// Execution happens in four phases: build (nodes, entries and access
// exceptions are created while the database is editable), check (every task
// validates itself, all failures are reported together), freeze
// (PrepareForRunning) and perform (the root task runs its children).
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/specialistvlad/measgrid/internal/taskdb"
)

// Executor orchestrates the execution of one measurement.
type Executor struct {
	reg   *registry.Registry
	db    *taskdb.Database
	model *config.Model
}

// New creates an executor for model. The database must be in editing mode.
func New(reg *registry.Registry, db *taskdb.Database, model *config.Model) *Executor {
	return &Executor{reg: reg, db: db, model: model}
}

// Execute builds, checks, freezes and performs the measurement.
func (e *Executor) Execute(ctx context.Context) error {
	root, err := e.Build(ctx)
	if err != nil {
		return err
	}
	if err := e.Check(ctx, root); err != nil {
		return err
	}
	return e.Perform(ctx, root)
}

// Check validates every task of the tree. Errors of all failing tasks are
// joined.
func (e *Executor) Check(ctx context.Context, root *task.Context) error {
	logger := ctxlog.FromContext(ctx)
	errs := task.Check(ctx, root)
	if len(errs) > 0 {
		logger.Error("Measurement check failed.", "failures", len(errs))
		return fmt.Errorf("measurement check failed: %w", errors.Join(errs...))
	}
	logger.Debug("Measurement check passed.")
	return nil
}

// Perform freezes the database and runs the root task.
func (e *Executor) Perform(ctx context.Context, root *task.Context) error {
	logger := ctxlog.FromContext(ctx)
	if err := e.db.PrepareForRunning(); err != nil {
		return fmt.Errorf("failed to prepare the database for running: %w", err)
	}
	logger.Info("Measurement started.")
	if err := task.Run(ctx, root); err != nil {
		logger.Error("Measurement failed.", "error", err)
		return err
	}
	logger.Info("Measurement finished.")
	return nil
}
