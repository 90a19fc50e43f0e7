package ports

import "context"

// ProgressionOrchestrator drives the demo delivery timeline: it advances a
// package through the normal status progression on a schedule until it
// reaches a terminal status.
type ProgressionOrchestrator interface {
	StartProgression(ctx context.Context, trackingNumber string) error
}
