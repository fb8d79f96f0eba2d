package archive

import "context"

// Strategy is one independent extraction backend. Strategies are tried in
// priority order; an unavailable strategy is skipped, not an error.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Available reports whether the backend can run on this host.
	Available() bool
	// Extract decompresses the archive into dest, which exists and is empty.
	// A non-nil error means this attempt failed; the chain discards dest and
	// moves on.
	Extract(ctx context.Context, archivePath, dest string) error
}
