package models

import "time"

// Submission is a facility report upload as stored in the submissions table.
// Status keeps whichever vocabulary the record was written with; use the
// compliance package to interpret it.
type Submission struct {
	ID                  string     `db:"id" json:"id"`
	FacilityID          string     `db:"facility_id" json:"facilityId"`
	FacilityName        string     `db:"facility_name" json:"facilityName"`
	ProgramID           string     `db:"program_id" json:"programId"`
	ProgramName         string     `db:"program_name" json:"programName"`
	Timestamp           time.Time  `db:"timestamp" json:"timestamp"`
	SubmissionDate      string     `db:"submission_date" json:"submissionDate"`
	MorbidityWeek       *int       `db:"morbidity_week" json:"morbidityWeek,omitempty"`
	SubmissionMonth     *int       `db:"submission_month" json:"submissionMonth,omitempty"`
	SubmissionYear      *int       `db:"submission_year" json:"submissionYear,omitempty"`
	Status              string     `db:"status" json:"status"`
	Confirmed           bool       `db:"confirmed" json:"confirmed"`
	IsZeroCase          bool       `db:"is_zero_case" json:"isZeroCase"`
	FileURL             *string    `db:"file_url" json:"fileUrl,omitempty"`
	BatchID             *string    `db:"batch_id" json:"batchId,omitempty"`
	GroupKey            *string    `db:"group_key" json:"groupKey,omitempty"`
	DeletionRequestedAt *time.Time `db:"deletion_requested_at" json:"deletionRequestedAt,omitempty"`
	ReviewedBy          *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewRemarks       *string    `db:"review_remarks" json:"reviewRemarks,omitempty"`
}

// HasDeletionRequest reports whether the record awaits moderated deletion.
func (s Submission) HasDeletionRequest() bool {
	return s.DeletionRequestedAt != nil
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	FacilityID string
	ProgramID  string
	GroupKey   string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// UploadBatch groups the disease-level submissions of a single composite upload.
type UploadBatch struct {
	ID         string    `db:"id" json:"id"`
	FacilityID string    `db:"facility_id" json:"facilityId"`
	GroupKey   string    `db:"group_key" json:"groupKey"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SubmissionReview captures the review fields persisted by PHO actions.
type SubmissionReview struct {
	Status     string
	Confirmed  bool
	ReviewedBy string
	ReviewedAt time.Time
	Remarks    *string
}
