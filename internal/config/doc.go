// Package config defines the format-agnostic model of a measurement: the
// entries seeded into the task database and the tree of tasks to execute,
// along with the Loader interface that produces it.
//
// The `config.Model` is the single source of truth for the `executor`
// package. Concrete loaders, such as the HCL one, live in separate packages.
package config
