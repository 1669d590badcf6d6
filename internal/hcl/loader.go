package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/fsutil"
	"github.com/specialistvlad/measgrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL measurement loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges them into one
// measurement model. Root values and top-level task names must be unique
// across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{Values: make(map[string]cty.Value)}
	topLevel := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Exclude != nil {
			model.Excluded = append(model.Excluded, root.Exclude...)
		}

		values, err := translateValues(root.Values)
		if err != nil {
			return nil, fmt.Errorf("invalid root values in %s: %w", file, err)
		}
		for name, v := range values {
			if _, dup := model.Values[name]; dup {
				return nil, fmt.Errorf("root value %q defined twice (second time in %s)", name, file)
			}
			model.Values[name] = v
		}

		for _, t := range root.Tasks {
			if prev, dup := topLevel[t.Name]; dup {
				return nil, fmt.Errorf("task %q defined in both %s and %s", t.Name, prev, file)
			}
			topLevel[t.Name] = file
			task, err := translateTask(t)
			if err != nil {
				return nil, fmt.Errorf("invalid task in %s: %w", file, err)
			}
			model.Tasks = append(model.Tasks, task)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "root_values", len(model.Values), "tasks", len(model.Tasks))
	return model, nil
}
