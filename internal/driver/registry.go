package driver

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type Factory func(ctx context.Context, opts Options) (Driver, error)

var registry = map[string]Factory{}

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

func Open(ctx context.Context, name string, opts Options) (Driver, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown driver: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(ctx, opts)
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
