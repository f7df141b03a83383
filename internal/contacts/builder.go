package contacts

import (
	"context"
	"log/slog"
)

// Builder builds a fresh Directory from every contact source under Root.
// It holds no state between builds.
type Builder struct {
	Root   string
	Logger *slog.Logger
}

// NewBuilder returns a Builder for the AddressBook directory root.
func NewBuilder(root string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Root: root, Logger: logger}
}

// Build discovers and reads every contact source and merges them in
// discovery order. Sources that cannot be opened are skipped and partially
// readable sources contribute what they could read, so the result is never
// an error: with no usable source it is simply empty.
func (b *Builder) Build(ctx context.Context) *Directory {
	paths := DiscoverSources(b.Root)
	dirs := make([]*Directory, 0, len(paths))
	for _, p := range paths {
		dir, err := ReadSource(ctx, p)
		if err != nil {
			b.logger().Warn("skipping contact source", "path", p, "error", err)
		}
		if dir != nil {
			dirs = append(dirs, dir)
		}
	}
	merged := Merge(dirs...)
	b.logger().Debug("built contact directory", "sources", len(paths), "keys", merged.Len())
	return merged
}

// Accessible reports whether at least one contact source yielded a name.
func (b *Builder) Accessible(ctx context.Context) bool {
	return b.Build(ctx).Len() > 0
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
