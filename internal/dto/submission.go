package dto

import (
	"time"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
)

// SubmissionListQuery binds GET /submissions.
type SubmissionListQuery struct {
	FacilityID string `form:"facilityId"`
	ProgramID  string `form:"programId"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// ReviewRequest is the POST /submissions/{id}/review payload.
type ReviewRequest struct {
	Action  string  `json:"action" validate:"required,oneof=approve reject resubmit"`
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// SubmissionResponse exposes a submission with its canonical review state.
type SubmissionResponse struct {
	models.Submission
	Review compliance.ReviewState `json:"review"`
}

// NewSubmissionResponse annotates sub with its normalised review state.
func NewSubmissionResponse(sub models.Submission) SubmissionResponse {
	return SubmissionResponse{Submission: sub, Review: compliance.NormalizeReview(sub.Status, sub.Confirmed)}
}

// ReviewEvent is published on the reviews topic after a review is persisted.
type ReviewEvent struct {
	EventID      string                  `json:"eventId"`
	Type         string                  `json:"type"`
	SubmissionID string                  `json:"submissionId"`
	FacilityID   string                  `json:"facilityId"`
	ProgramID    string                  `json:"programId"`
	Action       compliance.ReviewAction `json:"action"`
	Review       compliance.ReviewState  `json:"review"`
	ReviewedBy   string                  `json:"reviewedBy"`
	ReviewedAt   time.Time               `json:"reviewedAt"`
}
