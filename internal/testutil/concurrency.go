package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/internal/task"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It registers the "sleeper" task type and records the execution time of
// every sleeper task by path.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Records returns a copy of the recorded execution times.
func (m *MockSleeperModule) Records() map[string]ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(m.ExecutionTimes))
	for k, v := range m.ExecutionTimes {
		out[k] = *v
	}
	return out
}

type sleeperTask struct {
	m *MockSleeperModule
}

func (s *sleeperTask) Entries() map[string]any { return nil }

func (s *sleeperTask) Check(ctx context.Context, tc *task.Context) error { return nil }

func (s *sleeperTask) Perform(ctx context.Context, tc *task.Context) error {
	startTime := time.Now()
	select {
	case <-time.After(s.m.sleepDuration):
	case <-ctx.Done():
		return ctx.Err()
	}
	endTime := time.Now()

	s.m.mu.Lock()
	s.m.ExecutionTimes[tc.NodePath()] = &ExecutionRecord{Start: startTime, End: endTime}
	s.m.mu.Unlock()

	if s.m.completionChan != nil {
		s.m.completionChan <- tc.NodePath()
	}
	return nil
}

// Register registers the "sleeper" task type.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.RegisterTask("sleeper", func(def *config.Task) (task.Task, error) {
		return &sleeperTask{m: m}, nil
	})
}
