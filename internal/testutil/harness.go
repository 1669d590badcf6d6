package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/specialistvlad/measgrid/internal/app"
	"github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Report is nil when the run stopped before the database was frozen.
	Report *app.Report
}

// RunIntegrationTest runs a measurement made of files (relative path to
// content) with the core modules plus the given extra modules, using a
// background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller provided
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Write all HCL files into a temporary measurement directory.
	tmpDir := t.TempDir()
	measurementDir := filepath.Join(tmpDir, "measurement")
	require.NoError(t, os.Mkdir(measurementDir, 0755))
	for name, content := range files {
		filePath := filepath.Join(measurementDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	// 2. Configure the app with a report file next to the measurement.
	reportPath := filepath.Join(tmpDir, "report.yaml")
	appConfig := &app.Config{
		MeasurementPath: measurementDir,
		ReportPath:      reportPath,
		LogLevel:        "debug",
		LogFormat:       "text",
	}

	logBuffer := &SafeBuffer{}
	allModules := append(app.CoreModules(logBuffer, false), modules...)

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), allModules...)
	}()

	if panicErr != nil {
		logOutput(t, logBuffer)
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	// 3. Run and read the report back when one was written.
	runErr := testApp.Run(ctx)
	report, err := readReport(reportPath)
	require.NoError(t, err)

	logOutput(t, logBuffer)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Report:    report,
	}
}

func logOutput(t *testing.T, b *SafeBuffer) {
	t.Helper()
	if os.Getenv("MEASGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), b.String())
	}
}

func readReport(path string) (*app.Report, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r app.Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
