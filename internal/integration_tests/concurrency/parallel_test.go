package integration_tests

import (
	"testing"
	"time"

	"github.com/specialistvlad/measgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

const sleepDuration = 150 * time.Millisecond

// Test for: children of a parallel container overlap in time.
func TestConcurrency_ParallelChildrenOverlap(t *testing.T) {
	t.Parallel()

	sleeper := testutil.NewMockSleeperModule(nil, sleepDuration)
	files := map[string]string{"main.hcl": `
task "complex" "batch" {
  parallel = true

  task "sleeper" "a" {
  }

  task "sleeper" "b" {
  }

  task "sleeper" "c" {
  }
}
`}

	start := time.Now()
	result := testutil.RunIntegrationTest(t, files, sleeper)
	elapsed := time.Since(start)

	require.NoError(t, result.Err)
	records := sleeper.Records()
	require.Len(t, records, 3)
	require.Less(t, elapsed, 3*sleepDuration, "parallel children should not run one after the other")

	a, b := records["root/batch/a"], records["root/batch/b"]
	require.True(t, a.Start.Before(b.End) && b.Start.Before(a.End), "a and b should overlap")
}

// Test for: children of a sequential container run in declaration order.
func TestConcurrency_SequentialChildrenInOrder(t *testing.T) {
	t.Parallel()

	completions := make(chan string, 3)
	sleeper := testutil.NewMockSleeperModule(completions, 10*time.Millisecond)
	files := map[string]string{"main.hcl": `
task "complex" "batch" {
  task "sleeper" "first" {
  }

  task "sleeper" "second" {
  }

  task "sleeper" "third" {
  }
}
`}

	result := testutil.RunIntegrationTest(t, files, sleeper)
	require.NoError(t, result.Err)
	close(completions)

	var order []string
	for path := range completions {
		order = append(order, path)
	}
	require.Equal(t, []string{"root/batch/first", "root/batch/second", "root/batch/third"}, order)

	records := sleeper.Records()
	require.False(t, records["root/batch/second"].Start.Before(records["root/batch/first"].End))
}

// Test for: parallel loop children writing the same entries concurrently
// leave the database consistent.
func TestConcurrency_ParallelWritersInLoop(t *testing.T) {
	t.Parallel()

	result := testutil.RunHCLTest(t, `
task "loop" "sweep" {
  parallel = true
  arguments {
    iterable = range(20)
  }

  task "formula" "a" {
    arguments {
      v = sweep_value * 2
    }
  }

  task "formula" "b" {
    arguments {
      v = sweep_value * 3
    }
  }
}
`)

	require.NoError(t, result.Err)
	testutil.AssertEntry(t, result, "root/sweep/a_v", 38)
	testutil.AssertEntry(t, result, "root/sweep/b_v", 57)
	require.Equal(t, 21, result.Report.Updates["root/sweep/a_v"])
}
