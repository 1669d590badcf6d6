package testutil

import "github.com/specialistvlad/measgrid/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single task type.
type SimpleModule struct {
	TaskType string
	Factory  registry.Factory
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.TaskType != "" && m.Factory != nil {
		r.RegisterTask(m.TaskType, m.Factory)
	}
}
