package ports

import (
	"context"

	"trustdebt/domain/snapshot"
)

// SignalSource provides the input snapshot of a run. Implementations read
// whatever the upstream extraction produced; the engine treats the result as
// read-only.
type SignalSource interface {
	// Load reads one complete snapshot
	Load(ctx context.Context) (*snapshot.Snapshot, error)

	// Describe names the source for logs
	Describe() string
}
