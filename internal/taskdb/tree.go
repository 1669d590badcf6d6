package taskdb

import (
	"fmt"
	"sort"
	"strings"
)

// tree is the editing representation of the database: an arena of nodes
// addressed by id, with child links stored as ids.
type tree struct {
	nodes map[nodeID]*node
	next  nodeID
}

func newTree() *tree {
	t := &tree{nodes: make(map[nodeID]*node)}
	t.alloc()
	return t
}

func (t *tree) alloc() nodeID {
	id := t.next
	t.next++
	t.nodes[id] = newNode()
	return id
}

// release drops a node and its whole subtree from the arena.
func (t *tree) release(id nodeID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, e := range n.entries {
		if e.isNode {
			t.release(e.child)
		}
	}
	delete(t.nodes, id)
}

// resolve returns the node named by path.
func (t *tree) resolve(path string) (*node, error) {
	root := t.nodes[rootID]
	if path == RootPath {
		return root, nil
	}
	keys := strings.Split(path, separator)
	if keys[0] != RootPath {
		return nil, fmt.Errorf("%w: path %s does not start at %s", ErrInvalidPath, path, RootPath)
	}
	n := root
	for i, key := range keys[1:] {
		e, ok := n.entries[key]
		if !ok || !e.isNode {
			return nil, fmt.Errorf("%w: path %s is invalid, no node %s in %s", ErrInvalidPath, path, key, keys[i])
		}
		n = t.nodes[e.child]
	}
	return n, nil
}

// set stores a value and reports whether the name was new.
func (t *tree) set(path, name string, value any) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	n, err := t.resolve(path)
	if err != nil {
		return false, err
	}
	if old, ok := n.entries[name]; ok && old.isNode {
		t.release(old.child)
	}
	return n.put(name, entry{value: value}), nil
}

// lookup implements the scoped value resolution: local values first, then
// the access exception for name, then the parent node.
func (t *tree) lookup(path, name string) (any, error) {
	var (
		value    any
		followed = make(map[string]bool)
	)
	for {
		var redirect string
		found, err := walkUp(path, func(p string) (bool, error) {
			n, err := t.resolve(p)
			if err != nil {
				return false, err
			}
			if v, ok := n.value(name); ok {
				value = v
				return true, nil
			}
			if target, ok := n.access[name]; ok {
				if followed[p] {
					return false, fmt.Errorf("%w: access exception cycle on %s at %s", ErrEntryNotFound, name, p)
				}
				followed[p] = true
				redirect = target
				return true, nil
			}
			return false, nil
		})
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: can't find database entry %s from %s", ErrEntryNotFound, name, path)
		}
		if redirect == "" {
			return value, nil
		}
		path = redirect
	}
}

func (t *tree) createNode(parentPath, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	parent, err := t.resolve(parentPath)
	if err != nil {
		return err
	}
	if old, ok := parent.entries[name]; ok && old.isNode {
		t.release(old.child)
	}
	parent.put(name, entry{child: t.alloc(), isNode: true})
	return nil
}

func (t *tree) renameNode(parentPath, newName, oldName string) error {
	if err := checkName(newName); err != nil {
		return err
	}
	parent, err := t.resolve(parentPath)
	if err != nil {
		return err
	}
	e, ok := parent.entries[oldName]
	if !ok || !e.isNode {
		return fmt.Errorf("%w: no node %s at the path %s", ErrEntryNotFound, oldName, parentPath)
	}
	if newName == oldName {
		return nil
	}
	parent.remove(oldName)
	if old, ok := parent.remove(newName); ok && old.isNode {
		t.release(old.child)
	}
	parent.put(newName, e)
	return nil
}

func (t *tree) deleteNode(parentPath, name string) error {
	parent, err := t.resolve(parentPath)
	if err != nil {
		return err
	}
	e, ok := parent.entries[name]
	if !ok || !e.isNode {
		return fmt.Errorf("%w: no node %s at the path %s", ErrEntryNotFound, name, parentPath)
	}
	parent.remove(name)
	t.release(e.child)
	return nil
}

func (t *tree) deleteValue(path, name string) error {
	n, err := t.resolve(path)
	if err != nil {
		return err
	}
	if _, ok := n.value(name); !ok {
		return fmt.Errorf("%w: no entry %s in node %s", ErrEntryNotFound, name, path)
	}
	n.remove(name)
	return nil
}

func (t *tree) addAccess(path, name, target string) error {
	n, err := t.resolve(path)
	if err != nil {
		return err
	}
	if n.access == nil {
		n.access = make(map[string]string)
	}
	n.access[name] = target
	return nil
}

func (t *tree) removeAccess(path, name string) error {
	n, err := t.resolve(path)
	if err != nil {
		return err
	}
	if name == "" {
		if len(n.access) == 0 {
			return fmt.Errorf("%w: node %s has no access exceptions", ErrMissingException, path)
		}
		n.access = nil
		return nil
	}
	if _, ok := n.access[name]; !ok {
		return fmt.Errorf("%w: no access exception for %s in node %s", ErrMissingException, name, path)
	}
	delete(n.access, name)
	return nil
}

// accessible lists the names visible from path, excluded names removed.
func (t *tree) accessible(path string, excluded map[string]struct{}) ([]string, error) {
	seen := make(map[string]struct{})
	_, err := walkUp(path, func(p string) (bool, error) {
		n, err := t.resolve(p)
		if err != nil {
			return false, err
		}
		for _, name := range n.valueNames() {
			seen[name] = struct{}{}
		}
		for name := range n.access {
			seen[name] = struct{}{}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		if _, skip := excluded[name]; !skip {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// walk calls fn for every value stored at or below path. Values directly
// under the root whose name is excluded are skipped.
func (t *tree) walk(path string, excluded map[string]struct{}, fn func(path string, value any)) error {
	n, err := t.resolve(path)
	if err != nil {
		return err
	}
	t.walkNode(path, n, excluded, fn)
	return nil
}

func (t *tree) walkNode(path string, n *node, excluded map[string]struct{}, fn func(string, any)) {
	for _, name := range n.order {
		e := n.entries[name]
		if e.isNode {
			t.walkNode(JoinPath(path, name), t.nodes[e.child], excluded, fn)
			continue
		}
		if path == RootPath {
			if _, skip := excluded[name]; skip {
				continue
			}
		}
		fn(JoinPath(path, name), e.value)
	}
}

// flatten produces the running representation. Values are indexed breadth
// first; access exceptions are then mapped in reverse discovery order so an
// exception may point at a node whose own exceptions were already mapped.
func (t *tree) flatten() (*flat, error) {
	type item struct {
		path string
		n    *node
	}
	f := &flat{index: make(map[string]int)}
	queue := []item{{RootPath, t.nodes[rootID]}}
	for i := 0; i < len(queue); i++ {
		it := queue[i]
		for _, name := range it.n.order {
			e := it.n.entries[name]
			p := JoinPath(it.path, name)
			if e.isNode {
				queue = append(queue, item{p, t.nodes[e.child]})
				continue
			}
			f.index[p] = len(f.values)
			f.values = append(f.values, e.value)
		}
	}

	for i := len(queue) - 1; i >= 0; i-- {
		it := queue[i]
		names := make([]string, 0, len(it.n.access))
		for name := range it.n.access {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, local := it.n.value(name); local {
				continue
			}
			target := JoinPath(it.n.access[name], name)
			idx, ok := f.index[target]
			if !ok {
				return nil, fmt.Errorf("%w: access exception for %s in node %s points to %s which holds no value",
					ErrEntryNotFound, name, it.path, target)
			}
			f.index[JoinPath(it.path, name)] = idx
		}
	}
	return f, nil
}

func (t *tree) frozen() bool { return false }
