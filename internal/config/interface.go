package config

import "context"

// Loader is the interface for a format-specific configuration loader. A
// loader reads one pipeline declaration from a path, translates it into the
// format-agnostic model and validates it.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
