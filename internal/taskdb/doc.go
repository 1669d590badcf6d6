// Package taskdb implements the shared database used by the tasks of a
// measurement tree to exchange values.
//
// # Modes
//
// A Database lives in one of two modes and moves from the first to the
// second exactly once:
//
//   - **Editing:** entries and their hierarchy may change. The database is a
//     tree of nodes; every node holds named values, named child nodes and
//     optional access exceptions.
//   - **Running:** the hierarchy is frozen by PrepareForRunning. Values are
//     kept in a flat slice addressed by index and a map from absolute path to
//     index. Only values can change; creating, renaming or deleting anything
//     fails with ErrInvalidState.
//
// # Paths and Scoping
//
// Paths name nodes and have the form `root[/segment]*`. A value is always
// requested as a (path, name) pair. The lookup starts at the node named by
// the path and walks up towards the root until it finds a value called name,
// so a task sees the values of its own node and of all its ancestors.
//
// An access exception registered on a node redirects the lookup of a single
// name to another node (usually a descendant). It lets a parent see a value
// stored deeper in the tree without that value being copied.
//
// # Concurrency Model
//
// While editing the database is expected to be driven by a single goroutine.
// While running, any number of goroutines may read and write values: reads
// take a shared lock, writes take the exclusive lock for the duration of the
// slot update and of the change notification. Observers therefore run with
// the lock held and must not call back into the database.
//
// # Notifications
//
// Observers registered with Subscribe receive a Change when a value is
// created while editing, when any value is written while running, and when a
// value is deleted. Overwriting an existing value while editing does not
// notify.
package taskdb
