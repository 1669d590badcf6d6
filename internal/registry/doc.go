// Package registry provides the central "glue" for the task system.
//
// The Registry maps the task type names used in measurement files (e.g.,
// "formula") to the Go factories building them. Modules register their
// factories at startup; the registry is then validated against the loaded
// measurement so that unknown task types are reported before anything runs.
package registry
