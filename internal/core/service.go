package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvcheck/internal/logging"
	"github.com/google/uuid"
)

const (
	// DefaultRecentRuns is the page size used when callers ask for no limit.
	DefaultRecentRuns = 20

	// MaxRecentRuns caps a single history query.
	MaxRecentRuns = 100

	defaultRecordTimeout = 5 * time.Second
)

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	MaxConcurrentUploads int
	UploadWaitTime       time.Duration
	RecordTimeout        time.Duration // bound on a single history write
}

// Service runs uploads through the validation engine under a concurrency
// limit and records a summary of each run.
type Service struct {
	engine        *Engine
	limiter       *UploadLimiter
	recorder      RunRecorder
	recordTimeout time.Duration
	now           func() time.Time
}

// NewService creates a Service. A nil recorder disables run history.
func NewService(cfg ServiceConfig, recorder RunRecorder) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}

	return &Service{
		engine:        defaultEngine,
		limiter:       NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.UploadWaitTime),
		recorder:      recorder,
		recordTimeout: cfg.RecordTimeout,
		now:           time.Now,
	}
}

// ValidateUpload validates one upload. The returned error is non-nil only
// when the run could not start: ErrTooManyUploads when every slot stayed
// busy, or the context's error. Validation findings are in Run.Report.
func (s *Service) ValidateUpload(ctx context.Context, upload Upload) (*Run, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire validation slot: %w", err)
	}
	defer s.limiter.Release()

	run := &Run{
		ID:        uuid.New().String(),
		FileName:  upload.FileName,
		Size:      int64(len(upload.Data)),
		ClientIP:  ClientIPFromContext(ctx),
		CreatedAt: s.now().UTC(),
	}

	logger := logging.WithFields(ctx,
		"run_id", run.ID,
		"file", run.FileName,
		"size", run.Size,
	)

	start := time.Now()
	run.Report = s.engine.ValidateBytes(upload.Data)
	run.Duration = time.Since(start)

	logger.Info("validation finished",
		"status", run.Report.Status,
		"errors", len(run.Report.Errors),
		"duration", run.Duration,
	)

	s.record(ctx, run)
	return run, nil
}

// record stores the run summary. Failures are logged and never surface to
// the caller, whose report is already complete.
func (s *Service) record(ctx context.Context, run *Run) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()

	if err := s.recorder.RecordRun(recordCtx, run.Summary()); err != nil {
		logging.FromContext(ctx).Warn("failed to record validation run",
			"run_id", run.ID,
			"error", err,
		)
	}
}

// RecentRuns returns the newest run summaries. limit is clamped to
// [1, MaxRecentRuns]; zero or less means DefaultRecentRuns.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentRuns
	case limit > MaxRecentRuns:
		limit = MaxRecentRuns
	}

	runs, err := s.recorder.RecentRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	if runs == nil {
		runs = []RunSummary{}
	}
	return runs, nil
}

// Schema returns the schema uploads are validated against.
func (s *Service) Schema() Schema {
	return s.engine.Schema()
}

// WaitForUploads blocks until every in-flight validation has finished or ctx
// ends. Used during graceful shutdown.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// UploadLimiterStatus returns the limiter state for health reporting.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}
