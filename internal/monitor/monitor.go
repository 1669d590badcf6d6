// Package monitor records the changes notified by a taskdb.Database.
package monitor

import (
	"context"
	"sync"

	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/taskdb"
)

// Entry is the last known state of one database path.
type Entry struct {
	Value   any
	Updates int
}

// Monitor keeps the last value and the number of updates of every path it
// has been notified about.
type Monitor struct {
	ctx     context.Context
	mu      sync.Mutex
	entries map[string]Entry
}

// New creates a monitor logging through the logger carried by ctx.
func New(ctx context.Context) *Monitor {
	return &Monitor{ctx: ctx, entries: make(map[string]Entry)}
}

// Attach subscribes the monitor to db and returns the function detaching it.
func (m *Monitor) Attach(db *taskdb.Database) func() {
	return db.Subscribe(m.Observe)
}

// Observe implements taskdb.Observer.
func (m *Monitor) Observe(c taskdb.Change) {
	logger := ctxlog.FromContext(m.ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Deleted {
		delete(m.entries, c.Path)
		logger.Debug("Entry deleted.", "path", c.Path)
		return
	}
	e := m.entries[c.Path]
	e.Value = c.Value
	e.Updates++
	m.entries[c.Path] = e
	logger.Debug("Entry updated.", "path", c.Path, "value", c.Value, "updates", e.Updates)
}

// Snapshot returns a copy of the recorded entries.
func (m *Monitor) Snapshot() map[string]Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Entry, len(m.entries))
	for path, e := range m.entries {
		out[path] = e
	}
	return out
}
