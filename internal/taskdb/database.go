package taskdb

import (
	"fmt"
	"sort"
	"sync"
)

// store is implemented by *tree (editing) and *flat (running).
type store interface {
	frozen() bool
}

// DefaultExcluded lists the root entries hidden from listings by default.
var DefaultExcluded = []string{"threads", "instrs"}

// Database is the shared store of a measurement tree. See the package
// documentation for the editing and running modes.
type Database struct {
	mu       sync.RWMutex
	store    store
	excluded map[string]struct{}
	notifier notifier
}

// New creates an empty database in editing mode holding only the root node.
func New() *Database {
	db := &Database{store: newTree()}
	db.SetExcluded(DefaultExcluded...)
	return db
}

// Running reports whether PrepareForRunning has been called successfully.
func (db *Database) Running() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.store.frozen()
}

// Subscribe registers an observer of value changes. The returned function
// removes it.
func (db *Database) Subscribe(o Observer) (unsubscribe func()) {
	return db.notifier.subscribe(o)
}

// SetExcluded replaces the set of root entry names hidden from listings.
func (db *Database) SetExcluded(names ...string) {
	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[name] = struct{}{}
	}
	db.mu.Lock()
	db.excluded = excluded
	db.mu.Unlock()
}

// Excluded returns the sorted names hidden from listings.
func (db *Database) Excluded() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.excluded))
	for name := range db.excluded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// editing returns the tree or ErrInvalidState naming op. Callers hold mu.
func (db *Database) editing(op string) (*tree, error) {
	t, ok := db.store.(*tree)
	if !ok {
		return nil, fmt.Errorf("%w: cannot %s in running mode", ErrInvalidState, op)
	}
	return t, nil
}

// running returns the flat store or ErrInvalidState naming op. Callers hold mu.
func (db *Database) running(op string) (*flat, error) {
	f, ok := db.store.(*flat)
	if !ok {
		return nil, fmt.Errorf("%w: cannot %s in editing mode", ErrInvalidState, op)
	}
	return f, nil
}

// CreateNode adds an empty node called name under parentPath. An existing
// entry with the same name is replaced.
func (db *Database) CreateNode(parentPath, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("create a node")
	if err != nil {
		return err
	}
	return t.createNode(parentPath, name)
}

// Has reports whether the node at nodePath directly holds an entry called
// name, either a value or a child node. Access exceptions do not count.
func (db *Database) Has(nodePath, name string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, err := db.editing("inspect a node")
	if err != nil {
		return false, err
	}
	n, err := t.resolve(nodePath)
	if err != nil {
		return false, err
	}
	_, ok := n.entries[name]
	return ok, nil
}

// RenameNode renames the child node oldName of parentPath to newName.
func (db *Database) RenameNode(parentPath, newName, oldName string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("rename a node")
	if err != nil {
		return err
	}
	return t.renameNode(parentPath, newName, oldName)
}

// DeleteNode removes the child node name of parentPath and everything below it.
func (db *Database) DeleteNode(parentPath, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("delete a node")
	if err != nil {
		return err
	}
	return t.deleteNode(parentPath, name)
}

// SetValue stores value under name in the node at nodePath and reports
// whether a new entry was created.
//
// While editing, only the creation of an entry is notified. While running,
// the entry is located by walking up from nodePath, its slot is updated
// and every write is notified with nodePath/name as the path; the result is
// always false.
func (db *Database) SetValue(nodePath, name string, value any) (bool, error) {
	db.mu.Lock()
	switch s := db.store.(type) {
	case *flat:
		defer db.mu.Unlock()
		idx, err := s.find(nodePath, name)
		if err != nil {
			return false, err
		}
		s.values[idx] = value
		db.notifier.notify(Change{Path: JoinPath(nodePath, name), Value: value})
		return false, nil
	case *tree:
		created, err := s.set(nodePath, name, value)
		db.mu.Unlock()
		if err != nil {
			return false, err
		}
		if created {
			db.notifier.notify(Change{Path: JoinPath(nodePath, name), Value: value})
		}
		return created, nil
	default:
		db.mu.Unlock()
		panic(fmt.Sprintf("taskdb: unexpected store %T", s))
	}
}

// GetValue returns the value called name visible from assumedPath.
func (db *Database) GetValue(assumedPath, name string) (any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	switch s := db.store.(type) {
	case *flat:
		idx, err := s.find(assumedPath, name)
		if err != nil {
			return nil, err
		}
		return s.values[idx], nil
	case *tree:
		return s.lookup(assumedPath, name)
	default:
		panic(fmt.Sprintf("taskdb: unexpected store %T", s))
	}
}

// DeleteValue removes the value name from the node at nodePath.
func (db *Database) DeleteValue(nodePath, name string) error {
	db.mu.Lock()
	t, err := db.editing("delete an entry")
	if err == nil {
		err = t.deleteValue(nodePath, name)
	}
	db.mu.Unlock()
	if err != nil {
		return err
	}
	db.notifier.notify(Change{Path: JoinPath(nodePath, name), Deleted: true})
	return nil
}

// AddAccessException makes lookups of entry at nodePath continue in the
// node at entryNodePath. A previous exception for the same entry is
// replaced.
func (db *Database) AddAccessException(nodePath, entry, entryNodePath string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("add an access exception")
	if err != nil {
		return err
	}
	return t.addAccess(nodePath, entry, entryNodePath)
}

// RemoveAccessException removes the exception for entry at nodePath, or all
// exceptions of the node when entry is empty.
func (db *Database) RemoveAccessException(nodePath, entry string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("remove an access exception")
	if err != nil {
		return err
	}
	return t.removeAccess(nodePath, entry)
}

// ListAccessibleEntries returns the sorted names of the values visible from
// nodePath, including those reached through access exceptions. It is only
// available while editing.
func (db *Database) ListAccessibleEntries(nodePath string) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, err := db.editing("list accessible entries")
	if err != nil {
		return nil, err
	}
	return t.accessible(nodePath, db.excluded)
}

// ListAllEntries returns the sorted paths of every value stored at or below
// path.
func (db *Database) ListAllEntries(path string) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, err := db.editing("list entries")
	if err != nil {
		return nil, err
	}
	var paths []string
	err = t.walk(path, db.excluded, func(p string, _ any) {
		paths = append(paths, p)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ListAllValues is ListAllEntries returning the values keyed by path.
func (db *Database) ListAllValues(path string) (map[string]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, err := db.editing("list entries")
	if err != nil {
		return nil, err
	}
	values := make(map[string]any)
	err = t.walk(path, db.excluded, func(p string, v any) {
		values[p] = v
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// PrepareForRunning freezes the hierarchy and switches to running mode. It
// fails, leaving the database in editing mode, if an access exception points
// to a node that does not hold the entry.
func (db *Database) PrepareForRunning() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.editing("prepare for running")
	if err != nil {
		return err
	}
	f, err := t.flatten()
	if err != nil {
		return err
	}
	db.store = f
	return nil
}

// GetValuesByIndex returns the values at the given flat indexes, in order.
func (db *Database) GetValuesByIndex(indexes []int) ([]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	f, err := db.running("read by index")
	if err != nil {
		return nil, err
	}
	values := make([]any, len(indexes))
	for i, idx := range indexes {
		if values[i], err = f.at(idx); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// GetValuesByIndexPrefixed returns the values at the given flat indexes
// keyed by prefix followed by the index.
func (db *Database) GetValuesByIndexPrefixed(indexes []int, prefix string) (map[string]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	f, err := db.running("read by index")
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(indexes))
	for _, idx := range indexes {
		v, err := f.at(idx)
		if err != nil {
			return nil, err
		}
		values[fmt.Sprintf("%s%d", prefix, idx)] = v
	}
	return values, nil
}

// GetEntriesIndexes resolves the flat index of each name as seen from
// assumedPath.
func (db *Database) GetEntriesIndexes(assumedPath string, names []string) (map[string]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	f, err := db.running("resolve indexes")
	if err != nil {
		return nil, err
	}
	indexes := make(map[string]int, len(names))
	for _, name := range names {
		idx, err := f.find(assumedPath, name)
		if err != nil {
			return nil, err
		}
		indexes[name] = idx
	}
	return indexes, nil
}
