package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
)

// Validate checks that every task type used by the model is registered.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	var visit func(path string, tasks []*config.Task)
	visit = func(path string, tasks []*config.Task) {
		for _, t := range tasks {
			p := path + "/" + t.Name
			if _, ok := r.factories[t.Type]; !ok {
				errs = append(errs, fmt.Sprintf("task '%s': unknown type '%s'", p, t.Type))
			}
			visit(p, t.Children)
		}
	}
	visit("root", model.Tasks)

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	logger.Debug("Registry validation passed.", "types", len(r.factories))
	return nil
}
