package app

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/specialistvlad/measgrid/internal/monitor"
	"github.com/specialistvlad/measgrid/internal/taskdb"
)

// Report is the end-of-run summary written as YAML.
type Report struct {
	// Entries maps the path of every listed entry to its final value.
	Entries map[string]any `yaml:"entries"`
	// Updates maps paths to the number of notified changes.
	Updates map[string]int `yaml:"updates"`
}

// buildReport reads back the final value of every path. paths must be
// listed before the database is frozen.
func buildReport(db *taskdb.Database, paths []string, updates map[string]monitor.Entry) (*Report, error) {
	r := &Report{
		Entries: make(map[string]any, len(paths)),
		Updates: make(map[string]int, len(updates)),
	}
	for _, p := range paths {
		node, name, ok := taskdb.SplitPath(p)
		if !ok {
			return nil, fmt.Errorf("%w: %s", taskdb.ErrInvalidPath, p)
		}
		v, err := db.GetValue(node, name)
		if err != nil {
			return nil, err
		}
		r.Entries[p] = v
	}
	for p, e := range updates {
		r.Updates[p] = e.Updates
	}
	return r, nil
}

func writeReport(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
