package taskdb

import (
	"fmt"
	"strings"
)

// RootPath is the path of the root node.
const RootPath = "root"

const separator = "/"

// JoinPath appends name to the node path.
func JoinPath(path, name string) string {
	return path + separator + name
}

// checkName rejects entry names that would not be a single path segment.
func checkName(name string) error {
	if name == "" || strings.Contains(name, separator) {
		return fmt.Errorf("%w: entry name %q must be non-empty and must not contain %q", ErrInvalidPath, name, separator)
	}
	return nil
}

// ParentPath returns the path with its last segment removed. The second
// result is false when path has no parent.
func ParentPath(path string) (string, bool) {
	i := strings.LastIndex(path, separator)
	if i < 0 {
		return "", false
	}
	return path[:i], true
}

// SplitPath splits an entry path into its node path and entry name.
func SplitPath(path string) (string, string, bool) {
	i := strings.LastIndex(path, separator)
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// walkUp calls visit on path and then on each of its ancestors, stopping
// once visit reports done or returns an error. It reports whether any visit
// was done.
func walkUp(path string, visit func(p string) (bool, error)) (bool, error) {
	for {
		done, err := visit(path)
		if err != nil || done {
			return done, err
		}
		parent, ok := ParentPath(path)
		if !ok {
			return false, nil
		}
		path = parent
	}
}
