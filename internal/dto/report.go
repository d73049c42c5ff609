package dto

import "github.com/JusticeBelleza/apdms-portal-sub000/internal/models"

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type      string              `json:"type" validate:"required"`
	ProgramID string              `json:"programId" validate:"required"`
	Year      int                 `json:"year" validate:"required,min=1"`
	Week      *int                `json:"week,omitempty" validate:"omitempty,min=1,max=53"`
	Month     *int                `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Quarter   *int                `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
