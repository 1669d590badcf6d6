package taskdb

import "fmt"

// flat is the running representation of the database. Its shape never
// changes once built; only the content of values does.
type flat struct {
	values []any
	index  map[string]int
}

// find locates the index of name starting at path and walking up.
func (f *flat) find(path, name string) (int, error) {
	idx := -1
	_, _ = walkUp(path, func(p string) (bool, error) {
		i, ok := f.index[JoinPath(p, name)]
		if ok {
			idx = i
		}
		return ok, nil
	})
	if idx < 0 {
		return 0, fmt.Errorf("%w: can't find entry matching %s, %s", ErrEntryNotFound, path, name)
	}
	return idx, nil
}

func (f *flat) at(i int) (any, error) {
	if i < 0 || i >= len(f.values) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(f.values))
	}
	return f.values[i], nil
}

func (f *flat) frozen() bool { return true }
