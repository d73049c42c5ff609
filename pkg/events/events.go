// Package events carries submission change notifications over Kafka.
package events

import "time"

// Submission change types published by the upload pipeline and by reviews.
const (
	TypeSubmissionCreated  = "submission.created"
	TypeSubmissionUpdated  = "submission.updated"
	TypeSubmissionDeleted  = "submission.deleted"
	TypeSubmissionReviewed = "submission.reviewed"
)

// SubmissionEvent is the minimal payload every change feed message carries.
// Consumers only need to know that something changed; they reload state.
type SubmissionEvent struct {
	EventID      string    `json:"eventId"`
	Type         string    `json:"type"`
	SubmissionID string    `json:"submissionId"`
	FacilityID   string    `json:"facilityId,omitempty"`
	ProgramID    string    `json:"programId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt,omitempty"`
}
