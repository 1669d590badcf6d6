// Package sleep provides the sleep task, pausing for `time` seconds.
package sleep

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task waits.
type Task struct{}

// New builds a sleep task from its definition.
func New(def *config.Task) (task.Task, error) {
	return &Task{}, nil
}

// Entries implements task.Task.
func (t *Task) Entries() map[string]any { return nil }

// Check implements task.Task.
func (t *Task) Check(ctx context.Context, tc *task.Context) error {
	if err := tc.RequireArguments("time"); err != nil {
		return err
	}
	val, ok, err := tc.Preview("time")
	if err != nil || !ok {
		return err
	}
	_, err = duration(val)
	return err
}

// Perform implements task.Task.
func (t *Task) Perform(ctx context.Context, tc *task.Context) error {
	val, err := tc.EvaluateArgument("time")
	if err != nil {
		return err
	}
	d, err := duration(val)
	if err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// maxSeconds is the longest wait a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

func duration(val cty.Value) (time.Duration, error) {
	num, err := convert.Convert(val, cty.Number)
	if err != nil || num.IsNull() {
		return 0, fmt.Errorf("time must be a number of seconds, got %s", val.Type().FriendlyName())
	}
	seconds, _ := num.AsBigFloat().Float64()
	if seconds < 0 {
		return 0, fmt.Errorf("time must be non-negative, got %g", seconds)
	}
	if seconds >= maxSeconds {
		return 0, fmt.Errorf("time must be below %g seconds, got %g", maxSeconds, seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Register registers the task type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("sleep", New)
}
