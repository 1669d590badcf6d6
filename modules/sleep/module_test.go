package sleep

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/task"
	"github.com/specialistvlad/measgrid/internal/taskdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		val     cty.Value
		want    time.Duration
		wantErr string
	}{
		{name: "seconds", val: cty.NumberIntVal(2), want: 2 * time.Second},
		{name: "fraction", val: cty.NumberFloatVal(0.25), want: 250 * time.Millisecond},
		{name: "numeric string", val: cty.StringVal("1"), want: time.Second},
		{name: "zero", val: cty.NumberIntVal(0), want: 0},
		{name: "negative", val: cty.NumberIntVal(-1), wantErr: "time must be non-negative, got -1"},
		{name: "not a number", val: cty.True, wantErr: "time must be a number of seconds, got bool"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := duration(tc.val)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDuration_RejectsOverflow(t *testing.T) {
	_, err := duration(cty.NumberFloatVal(1e12))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time must be below")
	assert.Contains(t, err.Error(), "got 1e+12")

	got, err := duration(cty.NumberIntVal(86400 * 365))
	require.NoError(t, err)
	assert.Equal(t, 365*24*time.Hour, got)
}

func newSleep(t *testing.T, seconds string) *task.Context {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(seconds), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors())
	def := &config.Task{Type: "sleep", Name: "s", Arguments: map[string]hcl.Expression{"time": expr}}
	tk, err := New(def)
	require.NoError(t, err)
	return &task.Context{Name: "s", Path: "root", DB: taskdb.New(), Def: def, Task: tk}
}

func TestSleep_Perform(t *testing.T) {
	tc := newSleep(t, "0.05")
	require.NoError(t, tc.Task.Check(context.Background(), tc))
	require.NoError(t, tc.DB.PrepareForRunning())

	start := time.Now()
	require.NoError(t, tc.Task.Perform(context.Background(), tc))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSleep_Cancelled(t *testing.T) {
	tc := newSleep(t, "60")
	require.NoError(t, tc.DB.PrepareForRunning())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tc.Task.Perform(ctx, tc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSleep_CheckRejectsNegative(t *testing.T) {
	tc := newSleep(t, "-3")
	err := tc.Task.Check(context.Background(), tc)
	assert.EqualError(t, err, "time must be non-negative, got -3")
}
