package config

import "context"

// Loader is the interface for a format-specific measurement loader.
type Loader interface {
	// Load reads every measurement file found under the given paths and
	// merges them into a single model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
