package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/repository"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/jobs"
)

type reportRepoStub struct {
	jobs    map[string]*models.ReportJob
	deleted []string
	active  int
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
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
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListQueued(_ context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepoStub) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reportRepoStub) CountActiveByCreator(_ context.Context, userID string) (int, error) {
	count := r.active
	for _, job := range r.jobs {
		if job.CreatedBy == userID && (job.Status == models.ReportStatusQueued || job.Status == models.ReportStatusProcessing) {
			count++
		}
	}
	return count, nil
}

func (r *reportRepoStub) DeleteByID(_ context.Context, id string) error {
	delete(r.jobs, id)
	r.deleted = append(r.deleted, id)
	return nil
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

func newReportServiceForTest(t *testing.T) (*ReportService, *reportRepoStub, *queueStub, *ExportService) {
	t.Helper()
	exporter, _, _ := newExportServiceForTest(t)
	repo := newReportRepoStub()
	queue := &queueStub{}
	svc := NewReportService(repo, exportPrograms(), queue, exporter, nil, nil, ReportServiceConfig{
		ResultTTL: time.Hour,
		Location:  time.UTC,
	})
	return svc, repo, queue, exporter
}

func weeklyRequest() dto.ReportRequest {
	return dto.ReportRequest{
		Type:      "Weekly Summary",
		ProgramID: "dengue",
		Year:      2024,
		Week:      intPtr(12),
		Month:     intPtr(3),
		Format:    models.ReportFormatCSV,
	}
}

func TestReportServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), weeklyRequest(), phoActor)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)

	stored := repo.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, models.ReportTypeWeekly, stored.Type)
	assert.Equal(t, "pho-1", stored.CreatedBy)
	require.NotNil(t, stored.Params.Week)
	assert.Equal(t, 12, *stored.Params.Week)
	assert.Nil(t, stored.Params.Month)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, weeklyRequest(), facilityActor)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	req := weeklyRequest()
	req.Format = "xlsx"
	_, err = svc.CreateJob(ctx, req, phoActor)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = weeklyRequest()
	req.Type = "Daily Summary"
	_, err = svc.CreateJob(ctx, req, phoActor)
	assert.Equal(t, appErrors.ErrInvalidReportType.Code, appErrors.FromError(err).Code)

	req = weeklyRequest()
	req.Week = nil
	_, err = svc.CreateJob(ctx, req, phoActor)
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)

	req = weeklyRequest()
	req.ProgramID = "cholera"
	_, err = svc.CreateJob(ctx, req, phoActor)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	req = weeklyRequest()
	req.Type = "Annual Summary"
	_, err = svc.CreateJob(ctx, req, phoActor)
	assert.Equal(t, appErrors.ErrInvalidReportType.Code, appErrors.FromError(err).Code)

	repo.active = 3
	_, err = svc.CreateJob(ctx, weeklyRequest(), phoActor)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.jobs)
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	queue.err = errors.New("queue closed")

	_, err := svc.CreateJob(context.Background(), weeklyRequest(), phoActor)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestReportServiceGetStatus(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, weeklyRequest(), phoActor)
	require.NoError(t, err)

	status, err := svc.GetStatus(ctx, resp.ID, phoActor)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
	assert.Nil(t, status.ResultURL)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err = svc.GetStatus(ctx, resp.ID, admin)
	require.NoError(t, err)

	other := &models.JWTClaims{UserID: "pho-2", Role: models.RolePHOUser}
	_, err = svc.GetStatus(ctx, resp.ID, other)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(ctx, "missing", phoActor)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	msg := "boom"
	repo.jobs[resp.ID].ErrorMessage = &msg
	status, err = svc.GetStatus(ctx, resp.ID, phoActor)
	require.NoError(t, err)
	assert.Equal(t, &msg, status.Error)
}

func TestReportWorkerAndDownload(t *testing.T) {
	svc, repo, queue, exporter := newReportServiceForTest(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, weeklyRequest(), phoActor)
	require.NoError(t, err)

	metrics := NewMetricsService()
	worker := NewReportWorker(repo, exporter, metrics, 3, nil)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	require.NotNil(t, job.FinishedAt)

	download, err := svc.ResolveDownload(ctx, extractToken(*job.ResultURL))
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Contains(t, download.Filename, "dengue_2024-w12_")
	data, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "All facilities")

	_, err = svc.ResolveDownload(ctx, "garbage")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

type exportStub struct {
	err   error
	calls int
}

func (e *exportStub) Generate(context.Context, *models.ReportJob) (*ExportResult, error) {
	e.calls++
	return nil, e.err
}

func TestReportWorkerRetriesTransientFailures(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{ID: "job-1", Type: models.ReportTypeWeekly, Status: models.ReportStatusQueued}
	repo.jobs[job.ID] = job
	stub := &exportStub{err: errors.New("disk full")}
	worker := NewReportWorker(repo, stub, nil, 2, nil)
	ctx := context.Background()

	err := worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)

	err = worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "disk full", *job.ErrorMessage)
}

func TestReportWorkerFailsRequestErrorsImmediately(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{ID: "job-2", Type: models.ReportTypeWeekly, Status: models.ReportStatusQueued}
	repo.jobs[job.ID] = job
	stub := &exportStub{err: appErrors.Clone(appErrors.ErrNotFound, "program not found")}
	worker := NewReportWorker(repo, stub, NewMetricsService(), 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	assert.Equal(t, 1, stub.calls)
}

func TestReportServiceRecoverAndCleanup(t *testing.T) {
	svc, repo, queue, exporter := newReportServiceForTest(t)
	ctx := context.Background()

	repo.jobs["queued"] = &models.ReportJob{ID: "queued", Type: models.ReportTypeWeekly, Status: models.ReportStatusQueued}
	svc.RecoverPendingJobs(ctx)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "queued", queue.jobs[0].ID)

	result, err := exporter.Generate(ctx, weeklyJob(models.ReportFormatCSV))
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	repo.jobs["job-1"] = &models.ReportJob{
		ID:         "job-1",
		Status:     models.ReportStatusFinished,
		ResultURL:  &result.URL,
		FinishedAt: &old,
	}

	svc.cleanupExpired(ctx)
	assert.Equal(t, []string{"job-1"}, repo.deleted)
	_, err = exporter.Open(ctx, result.RelativePath)
	assert.Error(t, err)
}
