package taskdb

// nodeID addresses a node inside the tree arena.
type nodeID int

const rootID nodeID = 0

// entry is either a value or a reference to a child node.
type entry struct {
	value  any
	child  nodeID
	isNode bool
}

// node holds the entries of one level of the tree. Entries keep their
// insertion order so that flattening is deterministic.
type node struct {
	entries map[string]entry
	order   []string
	// access maps an entry name to the absolute path of the node that
	// really stores it.
	access map[string]string
}

func newNode() *node {
	return &node{entries: make(map[string]entry)}
}

// put stores e under name and reports whether the name was new. An existing
// name keeps its position.
func (n *node) put(name string, e entry) bool {
	_, exists := n.entries[name]
	n.entries[name] = e
	if !exists {
		n.order = append(n.order, name)
	}
	return !exists
}

func (n *node) remove(name string) (entry, bool) {
	e, ok := n.entries[name]
	if !ok {
		return entry{}, false
	}
	delete(n.entries, name)
	for i, k := range n.order {
		if k == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return e, true
}

// value returns the value stored under name, ignoring child nodes.
func (n *node) value(name string) (any, bool) {
	e, ok := n.entries[name]
	if !ok || e.isNode {
		return nil, false
	}
	return e.value, true
}

// valueNames lists the names of the values held by n in insertion order.
func (n *node) valueNames() []string {
	names := make([]string, 0, len(n.order))
	for _, k := range n.order {
		if !n.entries[k].isNode {
			names = append(names, k)
		}
	}
	return names
}
