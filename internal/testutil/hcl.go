package testutil

import "testing"

// RunHCLTest runs a measurement held in a single HCL string.
func RunHCLTest(t *testing.T, measurementHCL string) *HarnessResult {
	t.Helper()
	return RunIntegrationTest(t, map[string]string{"main.hcl": measurementHCL})
}
