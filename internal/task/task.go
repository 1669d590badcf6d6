// Package task defines the contract between the executor and the tasks of a
// measurement tree, and the per-task Context giving access to the shared
// database.
package task

import (
	"context"
	"errors"
	"fmt"
)

// Task is a node of the measurement tree.
type Task interface {
	// Entries returns the entries the task publishes in the database with
	// their initial values. They are created before the database is frozen.
	Entries() map[string]any
	// Check validates the task while the database is still editable.
	Check(ctx context.Context, tc *Context) error
	// Perform runs the task against the frozen database.
	Perform(ctx context.Context, tc *Context) error
}

// Container is implemented by tasks owning a database node that holds their
// values and their children.
type Container interface {
	Task
	container()
}

// Parent is embedded by container tasks.
type Parent struct{}

func (Parent) container() {}

// IsContainer reports whether t owns a database node.
func IsContainer(t Task) bool {
	_, ok := t.(Container)
	return ok
}

// Error attaches the path of the failing task to an error.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("task %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap returns err as an *Error for path unless it already names a task.
func wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Path: path, Err: err}
}
