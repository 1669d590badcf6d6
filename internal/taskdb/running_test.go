package taskdb

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareForRunning(t *testing.T) {
	db := newScenario(t)
	assert.False(t, db.Running())
	require.NoError(t, db.PrepareForRunning())
	assert.True(t, db.Running())

	require.ErrorIs(t, db.PrepareForRunning(), ErrInvalidState)
}

func TestStructuralOperationsFailWhileRunning(t *testing.T) {
	db := newScenario(t)
	require.NoError(t, db.PrepareForRunning())

	require.ErrorIs(t, db.CreateNode("root", "node2"), ErrInvalidState)
	require.ErrorIs(t, db.RenameNode("root", "node2", "node1"), ErrInvalidState)
	require.ErrorIs(t, db.DeleteNode("root", "node1"), ErrInvalidState)
	require.ErrorIs(t, db.DeleteValue("root", "val1"), ErrInvalidState)
	require.ErrorIs(t, db.AddAccessException("root", "val2", "root/node1"), ErrInvalidState)
	require.ErrorIs(t, db.RemoveAccessException("root", ""), ErrInvalidState)

	_, err := db.ListAccessibleEntries("root")
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = db.ListAllEntries(RootPath)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestIndexOperationsRequireRunning(t *testing.T) {
	db := newScenario(t)
	_, err := db.GetEntriesIndexes("root", []string{"val1"})
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = db.GetValuesByIndex([]int{0})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestIndexOperations(t *testing.T) {
	db := newScenario(t)
	require.NoError(t, db.CreateNode("root/node1", "node2"))
	require.NoError(t, db.PrepareForRunning())

	idx, err := db.GetEntriesIndexes("root", []string{"val1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"val1": 0}, idx)

	idx, err = db.GetEntriesIndexes("root/node1", []string{"val1", "val2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"val1": 0, "val2": 1}, idx)

	idx, err = db.GetEntriesIndexes("root/node1/node2", []string{"val2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"val2": 1}, idx)

	values, err := db.GetValuesByIndex([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, values)

	prefixed, err := db.GetValuesByIndexPrefixed([]int{0, 1}, "e_")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"e_0": 1, "e_1": "a"}, prefixed)

	_, err = db.GetValuesByIndex([]int{2})
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = db.GetEntriesIndexes("root", []string{"val2"})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestIndexOperationsWithAccessException(t *testing.T) {
	db := newScenario(t)
	require.NoError(t, db.AddAccessException("root", "val2", "root/node1"))
	require.NoError(t, db.PrepareForRunning())

	idx, err := db.GetEntriesIndexes("root", []string{"val1", "val2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"val1": 0, "val2": 1}, idx)
}

func TestIndexOperationsWithNestedAccessException(t *testing.T) {
	db := New()
	_, err := db.SetValue("root", "val1", 1)
	require.NoError(t, err)
	require.NoError(t, db.CreateNode("root", "node1"))
	require.NoError(t, db.CreateNode("root/node1", "node2"))
	_, err = db.SetValue("root/node1/node2", "val2", "a")
	require.NoError(t, err)
	require.NoError(t, db.AddAccessException("root/node1", "val2", "root/node1/node2"))
	require.NoError(t, db.AddAccessException("root", "val2", "root/node1"))
	require.NoError(t, db.PrepareForRunning())

	idx, err := db.GetEntriesIndexes("root", []string{"val1", "val2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"val1": 0, "val2": 1}, idx)

	created, err := db.SetValue("root", "val2", 2)
	require.NoError(t, err)
	assert.False(t, created)
	v, err := db.GetValue("root", "val2")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = db.SetValue("root/node1", "val2", 3)
	require.NoError(t, err)
	v, err = db.GetValue("root/node1/node2", "val2")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestDanglingAccessExceptionKeepsEditing(t *testing.T) {
	db := newScenario(t)
	require.NoError(t, db.AddAccessException("root", "missing", "root/node1"))

	err := db.PrepareForRunning()
	require.ErrorIs(t, err, ErrEntryNotFound)
	assert.Contains(t, err.Error(), "root/node1/missing")
	assert.False(t, db.Running())

	require.NoError(t, db.RemoveAccessException("root", "missing"))
	require.NoError(t, db.PrepareForRunning())
}

func TestLocalValueShadowsAccessExceptionWhileRunning(t *testing.T) {
	db := newScenario(t)
	_, err := db.SetValue("root/node1", "val1", "deep")
	require.NoError(t, err)
	require.NoError(t, db.AddAccessException("root", "val1", "root/node1"))

	before, err := db.GetValue("root", "val1")
	require.NoError(t, err)
	require.NoError(t, db.PrepareForRunning())
	after, err := db.GetValue("root", "val1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGetSetWhileRunning(t *testing.T) {
	db := newScenario(t)
	require.NoError(t, db.PrepareForRunning())

	created, err := db.SetValue("root", "val1", 2)
	require.NoError(t, err)
	assert.False(t, created)

	v, err := db.GetValue("root", "val1")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = db.GetValue("root/node1", "val1")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = db.SetValue("root", "unknown", 1)
	require.ErrorIs(t, err, ErrEntryNotFound)
	_, err = db.GetValue("root/node1", "unknown")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRoundTripThroughFreeze(t *testing.T) {
	db := New()
	require.NoError(t, db.CreateNode("root", "a"))
	require.NoError(t, db.CreateNode("root/a", "b"))
	require.NoError(t, db.CreateNode("root", "c"))
	for i, p := range []string{"root", "root/a", "root/a/b", "root/c"} {
		for j := 0; j < 3; j++ {
			_, err := db.SetValue(p, fmt.Sprintf("v%d", j), i*10+j)
			require.NoError(t, err)
		}
	}
	before, err := db.ListAllValues(RootPath)
	require.NoError(t, err)
	require.Len(t, before, 12)

	require.NoError(t, db.PrepareForRunning())
	for path, want := range before {
		node, name, ok := SplitPath(path)
		require.True(t, ok)
		got, err := db.GetValue(node, name)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

func TestConcurrentAccessWhileRunning(t *testing.T) {
	db := New()
	numGoroutines := 50
	for i := 0; i < numGoroutines; i++ {
		_, err := db.SetValue("root", fmt.Sprintf("val%d", i), 0)
		require.NoError(t, err)
	}
	require.NoError(t, db.PrepareForRunning())

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("val%d", i)
			for j := 1; j <= 100; j++ {
				if _, err := db.SetValue("root", name, j); err != nil {
					t.Errorf("set %s: %v", name, err)
					return
				}
				if _, err := db.GetValue("root", name); err != nil {
					t.Errorf("get %s: %v", name, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		v, err := db.GetValue("root", fmt.Sprintf("val%d", i))
		require.NoError(t, err)
		assert.Equal(t, 100, v)
	}
}
