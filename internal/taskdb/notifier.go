package taskdb

import "sync"

// Change describes a modification of a database value. Deleted changes
// carry no value.
type Change struct {
	// Path is node path and entry name as given by the writer. While running
	// it may differ from the path of the node that actually stores the value.
	Path    string
	Value   any
	Deleted bool
}

// Observer receives database changes. It is called synchronously by the
// goroutine performing the write.
type Observer func(Change)

type subscription struct {
	id int
	fn Observer
}

type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

func (n *notifier) subscribe(fn Observer) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

func (n *notifier) notify(c Change) {
	n.mu.Lock()
	subs := n.subs
	n.mu.Unlock()
	for _, s := range subs {
		s.fn(c)
	}
}
