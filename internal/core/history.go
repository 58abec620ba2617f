package core

import "context"

// RunRecorder persists run summaries. Implementations must be safe for
// concurrent use.
type RunRecorder interface {
	RecordRun(ctx context.Context, run RunSummary) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// NopRecorder discards runs. It is used when no database is configured.
type NopRecorder struct{}

// RecordRun does nothing.
func (NopRecorder) RecordRun(context.Context, RunSummary) error { return nil }

// RecentRuns always returns an empty list.
func (NopRecorder) RecentRuns(context.Context, int) ([]RunSummary, error) {
	return []RunSummary{}, nil
}
