package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samachar-news/samachar/internal/shared"
)

type memoryRecorder struct {
	logs []shared.AuditLog
	err  error
}

func (m *memoryRecorder) Record(ctx context.Context, log shared.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

type countingObserver struct {
	outcomes map[string][]error
}

func (o *countingObserver) RecordJob(task string, err error) {
	if o.outcomes == nil {
		o.outcomes = make(map[string][]error)
	}
	o.outcomes[task] = append(o.outcomes[task], err)
}

func TestAuditJobRecordsEvent(t *testing.T) {
	rec := &memoryRecorder{}
	obs := &countingObserver{}
	job := NewAuditJob(rec, nil, obs)

	log := shared.NewAuditLog(1, shared.AuditRoleCreated, "role", "5", map[string]any{"slug": "editor"})
	task, err := NewAuditRecordTask(log)
	require.NoError(t, err)
	assert.Equal(t, TaskAuditRecord, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, rec.logs, 1)
	assert.Equal(t, log.EventID, rec.logs[0].EventID)
	assert.Equal(t, "editor", rec.logs[0].Meta["slug"])
	assert.Equal(t, []error{nil}, obs.outcomes[TaskAuditRecord])
}

func TestAuditJobSkipsMalformedPayload(t *testing.T) {
	job := NewAuditJob(&memoryRecorder{}, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskAuditRecord, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(shared.AuditLog{EventID: "x"})
	err = job.Handle(context.Background(), asynq.NewTask(TaskAuditRecord, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAuditJobRetriesStoreFailure(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("db down")}
	job := NewAuditJob(rec, nil, nil)
	task, err := NewAuditRecordTask(shared.NewAuditLog(1, shared.AuditUserRoleAssigned, "user", "3", nil))
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type fakePruner struct {
	cutoff time.Time
}

func (f *fakePruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestAuditPruneJobUsesRetention(t *testing.T) {
	pruner := &fakePruner{}
	job := NewAuditPruneJob(pruner, 48*time.Hour, nil, nil)
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Handle(context.Background(), NewAuditPruneTask()))
	assert.Equal(t, now.Add(-48*time.Hour), pruner.cutoff)

	job.retention = 0
	assert.Error(t, job.Handle(context.Background(), NewAuditPruneTask()))
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestAuditEnqueuerStampsAndQueues(t *testing.T) {
	q := &fakeEnqueuer{}
	enq := NewAuditEnqueuer(&Client{client: q}, nil)

	err := enq.Emit(context.Background(), shared.AuditLog{ActorID: 2, Action: shared.AuditMenuCreated, Entity: "menu", EntityID: "9"})
	require.NoError(t, err)
	require.Len(t, q.tasks, 1)

	var queued shared.AuditLog
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &queued))
	assert.NotEmpty(t, queued.EventID)
	assert.False(t, queued.At.IsZero())
	assert.Equal(t, shared.AuditMenuCreated, queued.Action)
}

func TestAuditEnqueuerIgnoresDuplicateTaskID(t *testing.T) {
	enq := NewAuditEnqueuer(&Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}, nil)
	assert.NoError(t, enq.Emit(context.Background(), shared.NewAuditLog(1, shared.AuditRoleUpdated, "role", "1", nil)))

	enq = NewAuditEnqueuer(&Client{client: &fakeEnqueuer{err: errors.New("redis down")}}, nil)
	assert.Error(t, enq.Emit(context.Background(), shared.NewAuditLog(1, shared.AuditRoleUpdated, "role", "1", nil)))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Failed: 1}}, nil).
		health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Pending)
	assert.Equal(t, 1, body.Failed)

	rec = httptest.NewRecorder()
	NewHandler(fakeInspector{err: errors.New("redis down")}, testLogger()).
		health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
