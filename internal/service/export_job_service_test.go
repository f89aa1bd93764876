package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siiau-planner-api/internal/dto"
	"github.com/noah-isme/siiau-planner-api/internal/models"
	"github.com/noah-isme/siiau-planner-api/internal/repository"
	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
	"github.com/noah-isme/siiau-planner-api/pkg/jobs"
)

type exportRepoStub struct {
	jobs map[string]*models.ExportJob
}

func newExportRepoStub() *exportRepoStub {
	return &exportRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportRepoStub) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *exportRepoStub) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *job
	return &out, nil
}

func (r *exportRepoStub) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportRepoStub) ListByStatus(_ context.Context, statuses []models.ExportStatus, _ int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range r.jobs {
		for _, status := range statuses {
			if job.Status == status {
				out = append(out, *job)
			}
		}
	}
	return out, nil
}

func (r *exportRepoStub) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type exportRecorderStub struct {
	counts map[models.ExportStatus]int
}

func (e *exportRecorderStub) RecordExportJob(_ models.ExportFormat, status models.ExportStatus) {
	if e.counts == nil {
		e.counts = map[models.ExportStatus]int{}
	}
	e.counts[status]++
}

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	return nil, f.err
}

type exportFixture struct {
	jobs      *ExportJobService
	worker    *ExportWorker
	repo      *exportRepoStub
	queue     *queueStub
	metrics   *exportRecorderStub
	exporter  *ExportService
	schedule  *models.SavedSchedule
	schedules *scheduleRepoStub
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	schedules := newScheduleRepoStub()
	schedule := &models.SavedSchedule{OwnerID: "user-1", Name: "Mi horario", Data: scheduleData()}
	require.NoError(t, schedules.Create(context.Background(), schedule))

	repo := newExportRepoStub()
	queue := &queueStub{}
	metrics := &exportRecorderStub{}
	exporter := newExportServiceForTest(t, schedules)
	return &exportFixture{
		jobs:      NewExportJobService(repo, schedules, queue, exporter, nil, zap.NewNop(), ExportJobServiceConfig{ResultTTL: time.Hour, CleanupInterval: time.Hour}),
		worker:    NewExportWorker(repo, exporter, metrics, zap.NewNop()),
		repo:      repo,
		queue:     queue,
		metrics:   metrics,
		exporter:  exporter,
		schedule:  schedule,
		schedules: schedules,
	}
}

func TestExportJobLifecycle(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	created, err := f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, ExportJobType, f.queue.jobs[0].Type)

	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	status, err := f.jobs.GetStatus(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, models.ExportFormatCSV, status.Format)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.Nil(t, status.Error)
	assert.Equal(t, 1, f.metrics.counts[models.ExportStatusFinished])

	_, err = f.jobs.GetStatus(ctx, "user-2", created.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	download, err := f.jobs.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	defer download.File.Close()
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "CALCULO")
	assert.Contains(t, string(content), "se cruza con")
	assert.Equal(t, models.ExportFormatCSV, download.Format)

	_, err = f.jobs.ResolveDownload(ctx, "tampered."+extractToken(*status.ResultURL))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportJobCreateValidation(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.jobs.CreateJob(ctx, "user-2", f.schedule.ID, dto.ExportRequest{Format: models.ExportFormatPDF})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.jobs.CreateJob(ctx, "user-1", "missing", dto.ExportRequest{Format: models.ExportFormatPDF})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	f.queue.err = jobs.ErrQueueFull
	_, err = f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: models.ExportFormatPDF})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	for _, job := range f.repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerRetryThenExhaust(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	created, err := f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: models.ExportFormatPDF})
	require.NoError(t, err)

	worker := NewExportWorker(f.repo, failingGenerator{err: errors.New("disk full")}, f.metrics, nil)
	err = worker.Handle(ctx, jobs.Job{ID: created.ID})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, f.repo.jobs[created.ID].Status)
	assert.Equal(t, "disk full", *f.repo.jobs[created.ID].ErrorMessage)

	worker.HandleExhausted(ctx, jobs.Job{ID: created.ID}, err)
	job := f.repo.jobs[created.ID]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	assert.NotNil(t, job.FinishedAt)
	assert.Equal(t, 1, f.metrics.counts[models.ExportStatusFailed])

	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: created.ID}))
}

func TestExportWorkerFailsWhenScheduleDeleted(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	created, err := f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	require.NoError(t, f.schedules.Delete(ctx, f.schedule.ID))

	require.NoError(t, f.worker.Handle(ctx, jobs.Job{ID: created.ID}))
	assert.Equal(t, models.ExportStatusFailed, f.repo.jobs[created.ID].Status)
	require.NoError(t, f.worker.Handle(ctx, jobs.Job{ID: "unknown"}))
}

func TestExportJobRecoverPendingJobs(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, &models.ExportJob{ID: "queued", Status: models.ExportStatusQueued}))
	require.NoError(t, f.repo.Create(ctx, &models.ExportJob{ID: "stuck", Status: models.ExportStatusProcessing, Progress: 10}))
	require.NoError(t, f.repo.Create(ctx, &models.ExportJob{ID: "done", Status: models.ExportStatusFinished}))

	assert.Equal(t, 2, f.jobs.RecoverPendingJobs(ctx))
	assert.Len(t, f.queue.jobs, 2)
	assert.Equal(t, models.ExportStatusQueued, f.repo.jobs["stuck"].Status)
	assert.Zero(t, f.repo.jobs["stuck"].Progress)
}

func TestExportJobCleanupExpired(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()
	created, err := f.jobs.CreateJob(ctx, "user-1", f.schedule.ID, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, jobs.Job{ID: created.ID}))

	old := time.Now().Add(-2 * time.Hour)
	f.repo.jobs[created.ID].FinishedAt = &old
	token := extractToken(*f.repo.jobs[created.ID].ResultURL)

	f.jobs.CleanupExpired(ctx)

	_, err = f.jobs.ResolveDownload(ctx, token)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
