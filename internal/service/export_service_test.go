package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/storage"
)

type programSubmissionStub struct {
	subs          []models.Submission
	lastProgramID string
	lastGroupKey  string
}

func (s *programSubmissionStub) ListByProgram(_ context.Context, programID, groupKey string) ([]models.Submission, error) {
	s.lastProgramID = programID
	s.lastGroupKey = groupKey
	return s.subs, nil
}

func intPtr(v int) *int { return &v }

func exportPrograms() *stubProgramCatalog {
	return &stubProgramCatalog{programs: []models.Program{
		{ID: "dengue", Name: "Dengue", Frequency: models.FrequencyWeekly, Active: true,
			ReportTypes: pq.StringArray{"Weekly Summary", "Monthly Summary"}},
		{ID: "pidsr", Name: "PIDSR", Frequency: models.FrequencyWeekly, Active: true, CompositeGroupKey: "pidsr"},
	}}
}

func exportSubmissions() *programSubmissionStub {
	return &programSubmissionStub{subs: []models.Submission{
		{ID: "a1", FacilityID: "fac-2", FacilityName: "Bangued RHU", ProgramID: "dengue", SubmissionDate: "2024-03-19", Status: "approved", Confirmed: true},
		{ID: "a2", FacilityID: "fac-1", FacilityName: "Abra Provincial Hospital", ProgramID: "dengue", SubmissionDate: "2024-03-20", Status: "Pending Confirmation", IsZeroCase: true},
		{ID: "a3", FacilityID: "fac-1", FacilityName: "Abra Provincial Hospital", ProgramID: "dengue", SubmissionDate: "2024-03-21", Status: "rejected"},
		{ID: "a4", FacilityID: "fac-1", FacilityName: "Abra Provincial Hospital", ProgramID: "dengue", SubmissionDate: "2024-03-05", Status: "approved", Confirmed: true},
		{ID: "a5", FacilityID: "fac-1", FacilityName: "Abra Provincial Hospital", ProgramID: "dengue", SubmissionDate: "19/03/2024"},
	}}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *programSubmissionStub, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	subs := exportSubmissions()
	svc := NewExportService(ExportServiceParams{
		Programs:    exportPrograms(),
		Submissions: subs,
		Storage:     store,
		Signer:      storage.NewSignedURLSigner("secret", time.Hour),
		Config:      ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour, Location: time.UTC},
	})
	return svc, subs, store
}

func weeklyJob(format models.ReportFormat) *models.ReportJob {
	return &models.ReportJob{
		ID:   "job-1",
		Type: models.ReportTypeWeekly,
		Params: models.ReportJobParams{
			ProgramID: "dengue",
			Year:      2024,
			Week:      intPtr(12),
			Format:    format,
		},
	}
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, subs, _ := newExportServiceForTest(t)
	ctx := context.Background()

	result, err := svc.Generate(ctx, weeklyJob(models.ReportFormatCSV))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "weekly-summary/dengue_2024-w12_"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, 2, result.Facilities)
	assert.Equal(t, 3, result.Submissions)
	assert.Equal(t, "dengue", subs.lastProgramID)

	body, err := svc.Open(ctx, result.RelativePath)
	require.NoError(t, err)
	defer body.Close()
	rows, err := csv.NewReader(body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Facility", "Submissions", "Approved", "Pending", "Rejected", "Zero Case"}, rows[0])
	assert.Equal(t, []string{"Abra Provincial Hospital", "2", "0", "1", "1", "1"}, rows[1])
	assert.Equal(t, []string{"Bangued RHU", "1", "1", "0", "0", "0"}, rows[2])
	assert.Equal(t, []string{"All facilities", "3", "1", "1", "1", "1"}, rows[3])

	parsed, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", parsed.JobID)
	assert.Equal(t, result.RelativePath, parsed.Path)
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	ctx := context.Background()

	result, err := svc.Generate(ctx, weeklyJob(models.ReportFormatPDF))
	require.NoError(t, err)

	body, err := svc.Open(ctx, result.RelativePath)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportServiceGenerateCompositeProgram(t *testing.T) {
	svc, subs, _ := newExportServiceForTest(t)
	job := weeklyJob(models.ReportFormatCSV)
	job.Params.ProgramID = "pidsr"

	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "pidsr", subs.lastGroupKey)
}

func TestExportServiceGenerateErrors(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	ctx := context.Background()

	missing := weeklyJob(models.ReportFormatCSV)
	missing.Params.ProgramID = "cholera"
	_, err := svc.Generate(ctx, missing)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	badWeek := weeklyJob(models.ReportFormatCSV)
	badWeek.Params.Week = intPtr(60)
	_, err = svc.Generate(ctx, badWeek)
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)

	badFormat := weeklyJob("xlsx")
	_, err = svc.Generate(ctx, badFormat)
	assert.Error(t, err)

	_, err = svc.Generate(ctx, nil)
	assert.Error(t, err)
}

func TestExportServiceDeleteAndCleanup(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	ctx := context.Background()

	result, err := svc.Generate(ctx, weeklyJob(models.ReportFormatCSV))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, result.RelativePath))

	_, err = svc.Open(ctx, result.RelativePath)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	removed, err := svc.Cleanup(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "2024-w05", periodLabel(models.ReportJobParams{Year: 2024, Week: intPtr(5)}))
	assert.Equal(t, "2024-03", periodLabel(models.ReportJobParams{Year: 2024, Month: intPtr(3)}))
	assert.Equal(t, "2024-q4", periodLabel(models.ReportJobParams{Year: 2024, Quarter: intPtr(4)}))
	assert.Equal(t, "2023", periodLabel(models.ReportJobParams{Year: 2023}))
}
