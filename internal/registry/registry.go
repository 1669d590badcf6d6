package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/task"
)

// Factory builds a task from its definition.
type Factory func(def *config.Task) (task.Task, error)

// Module is the interface that all task modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the task factories of a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterTask registers the factory of a task type.
func (r *Registry) RegisterTask(taskType string, factory Factory) {
	if _, exists := r.factories[taskType]; exists {
		panic(fmt.Sprintf("task type '%s' already registered", taskType))
	}
	slog.Debug("Registering task type.", "type", taskType)
	r.factories[taskType] = factory
}

// Types returns the sorted registered task types.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build creates the task described by def.
func (r *Registry) Build(def *config.Task) (task.Task, error) {
	factory, ok := r.factories[def.Type]
	if !ok {
		return nil, fmt.Errorf("unknown task type '%s' (known: %s)", def.Type, strings.Join(r.Types(), ", "))
	}
	t, err := factory(def)
	if err != nil {
		return nil, fmt.Errorf("task '%s' of type '%s': %w", def.Name, def.Type, err)
	}
	return t, nil
}
