package hcl

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateTask converts the HCL-specific task schema into the agnostic model.
func translateTask(s *schema.Task) (*config.Task, error) {
	if err := validateName("task", s.Name); err != nil {
		return nil, err
	}
	for _, name := range s.Expose {
		if err := validateName("exposed entry", name); err != nil {
			return nil, fmt.Errorf("task %q: %w", s.Name, err)
		}
	}
	values, err := translateValues(s.Values)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", s.Name, err)
	}
	args, err := extractBodyAttributes(s.Arguments)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", s.Name, err)
	}
	t := &config.Task{
		Type:      s.Type,
		Name:      s.Name,
		Values:    values,
		Expose:    s.Expose,
		Parallel:  s.Parallel,
		Arguments: args,
	}
	seen := make(map[string]struct{}, len(s.Tasks))
	for _, child := range s.Tasks {
		if _, dup := seen[child.Name]; dup {
			return nil, fmt.Errorf("task %q: duplicate child task %q", s.Name, child.Name)
		}
		seen[child.Name] = struct{}{}
		c, err := translateTask(child)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, c)
	}
	return t, nil
}

// translateValues evaluates a static `values` object into its attributes.
func translateValues(expr hcl.Expression) (map[string]cty.Value, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("values must be static: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("values must be an object, got %s", ty.FriendlyName())
	}
	values := make(map[string]cty.Value)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if err := validateName("value", k.AsString()); err != nil {
			return nil, err
		}
		values[k.AsString()] = v
	}
	return values, nil
}

func extractBodyAttributes(args *schema.Arguments) (map[string]hcl.Expression, error) {
	if args == nil || args.Body == nil {
		return nil, nil
	}
	attrs, diags := args.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprMap := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap, nil
}

// validateName rejects names that cannot be a single path element.
func validateName(kind, name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid %s name %q: must be non-empty and must not contain '/'", kind, name)
	}
	return nil
}
