package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/samachar-news/samachar/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one admin audit event.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune deletes audit events past the retention window.
	TaskAuditPrune = "audit:prune"
)

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// AuditPruner deletes audit events older than a cutoff.
type AuditPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobObserver counts processed jobs.
type JobObserver interface {
	RecordJob(task string, err error)
}

// NewAuditRecordTask constructs an audit:record task for log.
func NewAuditRecordTask(log shared.AuditLog) (*asynq.Task, error) {
	if err := log.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data, asynq.MaxRetry(10)), nil
}

// AuditJob handles audit:record tasks.
type AuditJob struct {
	recorder AuditRecorder
	logger   *slog.Logger
	observer JobObserver
}

// NewAuditJob constructs an AuditJob. observer may be nil.
func NewAuditJob(recorder AuditRecorder, logger *slog.Logger, observer JobObserver) *AuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditJob{recorder: recorder, logger: logger, observer: observer}
}

// Handle processes TaskAuditRecord tasks. Malformed payloads are dropped.
func (j *AuditJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { j.observe(TaskAuditRecord, err) }()

	var log shared.AuditLog
	if err := json.Unmarshal(t.Payload(), &log); err != nil {
		j.logger.Error("decode audit task", slog.Any("error", err))
		return fmt.Errorf("decode audit task: %w", asynq.SkipRetry)
	}
	if err := log.Validate(); err != nil {
		j.logger.Error("invalid audit task", slog.String("event_id", log.EventID), slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := j.recorder.Record(ctx, log); err != nil {
		j.logger.Warn("record audit event", slog.String("event_id", log.EventID), slog.Any("error", err))
		return err
	}
	j.logger.Debug("audit event recorded", slog.String("event_id", log.EventID), slog.String("action", log.Action))
	return nil
}

func (j *AuditJob) observe(task string, err error) {
	if j.observer != nil {
		j.observer.RecordJob(task, err)
	}
}

// AuditPruneJob handles audit:prune tasks.
type AuditPruneJob struct {
	pruner    AuditPruner
	retention time.Duration
	logger    *slog.Logger
	observer  JobObserver
	now       func() time.Time
}

// NewAuditPruneJob constructs an AuditPruneJob.
func NewAuditPruneJob(pruner AuditPruner, retention time.Duration, logger *slog.Logger, observer JobObserver) *AuditPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditPruneJob{pruner: pruner, retention: retention, logger: logger, observer: observer, now: time.Now}
}

// NewAuditPruneTask constructs the scheduled prune task.
func NewAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TaskAuditPrune, nil)
}

// Handle processes TaskAuditPrune tasks.
func (j *AuditPruneJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	defer func() {
		if j.observer != nil {
			j.observer.RecordJob(TaskAuditPrune, err)
		}
	}()
	if j.retention <= 0 {
		return errors.New("audit prune: retention must be positive")
	}
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("audit prune: %w", err)
	}
	j.logger.Info("audit events pruned", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return nil
}
