package compliance

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
)

// Record is a submission normalised for compliance computation.
type Record struct {
	ID                string
	FacilityID        string
	FacilityName      string
	ProgramID         string
	ProgramName       string
	BatchID           string
	GroupKey          string
	SubmittedOn       time.Time
	Review            ReviewState
	MorbidityWeek     int
	SubmissionMonth   int
	SubmissionYear    int
	ZeroCase          bool
	FileURL           string
	DeletionRequested bool
}

// Approved reports whether PHO has confirmed the submission.
func (r Record) Approved() bool {
	return r.Review == ReviewApproved
}

var submissionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Ingest converts a stored submission into a Record in loc. The client
// supplied submission date wins over the server timestamp; the timestamp is
// only used when no date was supplied. A submission whose date cannot be
// parsed is reported as not ok and must be left out of every computation.
func Ingest(sub models.Submission, loc *time.Location) (Record, bool) {
	if loc == nil {
		loc = time.Local
	}
	submittedOn, ok := parseSubmissionDate(sub.SubmissionDate, sub.Timestamp, loc)
	if !ok {
		return Record{}, false
	}
	return Record{
		ID:                sub.ID,
		FacilityID:        sub.FacilityID,
		FacilityName:      sub.FacilityName,
		ProgramID:         sub.ProgramID,
		ProgramName:       sub.ProgramName,
		BatchID:           lo.FromPtr(sub.BatchID),
		GroupKey:          lo.FromPtr(sub.GroupKey),
		SubmittedOn:       submittedOn,
		Review:            NormalizeReview(sub.Status, sub.Confirmed),
		MorbidityWeek:     lo.FromPtr(sub.MorbidityWeek),
		SubmissionMonth:   lo.FromPtr(sub.SubmissionMonth),
		SubmissionYear:    lo.FromPtr(sub.SubmissionYear),
		ZeroCase:          sub.IsZeroCase,
		FileURL:           lo.FromPtr(sub.FileURL),
		DeletionRequested: sub.HasDeletionRequest(),
	}, true
}

// IngestAll converts every submission and returns how many were skipped.
func IngestAll(subs []models.Submission, loc *time.Location) ([]Record, int) {
	records := make([]Record, 0, len(subs))
	skipped := 0
	for _, sub := range subs {
		rec, ok := Ingest(sub, loc)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func parseSubmissionDate(raw string, fallback time.Time, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback.IsZero() {
			return time.Time{}, false
		}
		return fallback.In(loc), true
	}
	for _, layout := range submissionDateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed.In(loc), true
		}
	}
	return time.Time{}, false
}
