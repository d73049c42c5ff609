package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/export"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/storage"
)

type programFinder interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type programSubmissionLister interface {
	ListByProgram(ctx context.Context, programID, groupKey string) ([]models.Submission, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Location  *time.Location
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
	Facilities   int
	Submissions  int
}

// ExportService builds compliance report datasets and persists rendered files.
type ExportService struct {
	programs    programFinder
	submissions programSubmissionLister
	storage     storage.BlobStore
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Programs    programFinder
	Submissions programSubmissionLister
	Storage     storage.BlobStore
	Signer      *storage.SignedURLSigner
	CSV         csvRenderer
	PDF         pdfRenderer
	Logger      *zap.Logger
	Config      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		programs:    params.Programs,
		submissions: params.Submissions,
		storage:     params.Storage,
		csv:         csv,
		pdf:         pdf,
		signer:      params.Signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds the facility breakdown for the job's program and period and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, stats, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(ctx, filename, payload, export.ContentType(string(job.Params.Format)))
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	s.logger.Info("compliance report generated",
		zap.String("job_id", job.ID),
		zap.String("program_id", job.Params.ProgramID),
		zap.String("path", relPath),
		zap.Int("facilities", stats.facilities),
		zap.Int("submissions", stats.submissions),
		zap.Int("skipped", stats.skipped),
	)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
		Facilities:   stats.facilities,
		Submissions:  stats.submissions,
	}, nil
}

// ParseToken validates a download token and returns its metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a reader for the stored file.
func (s *ExportService) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	return s.storage.Open(ctx, relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(ctx context.Context, relPath string) error {
	return s.storage.Delete(ctx, relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ctx context.Context, ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ctx, ttl)
}

type exportStats struct {
	facilities  int
	submissions int
	skipped     int
}

var facilityReportHeaders = []string{"Facility", "Submissions", "Approved", "Pending", "Rejected", "Zero Case"}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, exportStats, error) {
	params := job.Params
	window, err := compliance.Resolve(job.Type, params.Year, compliance.PeriodParams{
		Week:    params.Week,
		Month:   params.Month,
		Quarter: params.Quarter,
	}, s.cfg.Location)
	if err != nil {
		return export.Dataset{}, exportStats{}, mapPeriodError(err, string(job.Type))
	}

	program, err := s.programs.FindByID(ctx, params.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.Dataset{}, exportStats{}, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return export.Dataset{}, exportStats{}, fmt.Errorf("load program: %w", err)
	}

	subs, err := s.submissions.ListByProgram(ctx, program.ID, program.CompositeGroupKey)
	if err != nil {
		return export.Dataset{}, exportStats{}, fmt.Errorf("load submissions: %w", err)
	}
	records, skipped := compliance.IngestAll(subs, s.cfg.Location)
	inWindow := compliance.FilterSubmissions(records, *program, window)
	counts := compliance.CountByFacility(inWindow)

	rows := make([]map[string]string, 0, len(counts)+1)
	var total compliance.FacilityCount
	for _, fc := range counts {
		rows = append(rows, facilityRow(fc.FacilityName, fc))
		total.Total += fc.Total
		total.Approved += fc.Approved
		total.Pending += fc.Pending
		total.Rejected += fc.Rejected
		total.ZeroCase += fc.ZeroCase
	}
	rows = append(rows, facilityRow("All facilities", total))

	notes := []string{
		fmt.Sprintf("Program: %s", program.Name),
		fmt.Sprintf("Period: %s to %s", window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly)),
		fmt.Sprintf("Generated: %s", time.Now().In(s.cfg.Location).Format("2006-01-02 15:04 MST")),
	}
	if skipped > 0 {
		notes = append(notes, fmt.Sprintf("Submissions with unreadable dates left out: %d", skipped))
	}

	dataset := export.Dataset{
		Title:   window.Title,
		Notes:   notes,
		Headers: facilityReportHeaders,
		Rows:    rows,
	}
	return dataset, exportStats{facilities: len(counts), submissions: len(inWindow), skipped: skipped}, nil
}

func facilityRow(name string, fc compliance.FacilityCount) map[string]string {
	return map[string]string{
		"Facility":    name,
		"Submissions": strconv.Itoa(fc.Total),
		"Approved":    strconv.Itoa(fc.Approved),
		"Pending":     strconv.Itoa(fc.Pending),
		"Rejected":    strconv.Itoa(fc.Rejected),
		"Zero Case":   strconv.Itoa(fc.ZeroCase),
	}
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	kind := strings.ToLower(strings.ReplaceAll(string(job.Type), " ", "-"))
	return fmt.Sprintf("%s/%s_%s_%s.%s", kind, sanitizeFilename(job.Params.ProgramID), periodLabel(job.Params), timestamp, job.Params.Format)
}

func periodLabel(params models.ReportJobParams) string {
	switch {
	case params.Week != nil:
		return fmt.Sprintf("%d-w%02d", params.Year, *params.Week)
	case params.Month != nil:
		return fmt.Sprintf("%d-%02d", params.Year, *params.Month)
	case params.Quarter != nil:
		return fmt.Sprintf("%d-q%d", params.Year, *params.Quarter)
	default:
		return strconv.Itoa(params.Year)
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
