package param

import (
	"context"
	"fmt"
	"os"
)

// EnvFetcher resolves parameters from environment variables.
// Lookup defaults to os.LookupEnv.
type EnvFetcher struct {
	Lookup func(string) (string, bool)
}

func (f *EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	lookup := f.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(name); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %s: %w", name, ErrNotSet)
}
