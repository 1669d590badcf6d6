package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertTaskRan checks the log output within a HarnessResult to confirm
// that the task at path finished at least once.
func AssertTaskRan(t *testing.T, result *HarnessResult, path string) {
	t.Helper()
	require.True(t, taskLogged(result, path, `msg="Task finished."`),
		"expected log output for task '%s' was not found in logs", path)
}

// AssertTaskNotRan is the opposite of AssertTaskRan.
func AssertTaskNotRan(t *testing.T, result *HarnessResult, path string) {
	t.Helper()
	require.False(t, taskLogged(result, path, `msg="Task finished."`),
		"task '%s' was not expected to finish", path)
}

// taskLogged relies on the task attribute being the last one of task
// lifecycle lines.
func taskLogged(result *HarnessResult, path, msg string) bool {
	attr := "task=" + path
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, msg) && strings.HasSuffix(line, attr) {
			return true
		}
	}
	return false
}

// AssertEntry checks the final value of a database entry in the report.
// Numbers are compared by value, whatever type the YAML decoder picked.
func AssertEntry(t *testing.T, result *HarnessResult, path string, want any) {
	t.Helper()
	require.NotNil(t, result.Report, "no report was written")
	got, ok := result.Report.Entries[path]
	require.True(t, ok, "entry '%s' is missing from the report", path)
	assert.EqualValues(t, want, got, "entry '%s'", path)
}
