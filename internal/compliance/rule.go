package compliance

import (
	"time"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

const defaultDeadlineDays = 30

// DeadlineTable maps a program frequency to the number of days a confirmed
// submission stays current.
var DeadlineTable = map[models.Frequency]int{
	models.FrequencyWeekly:    7,
	models.FrequencyMonthly:   30,
	models.FrequencyQuarterly: 90,
}

// DeadlineDays returns the allowed staleness for frequency.
func DeadlineDays(frequency models.Frequency) int {
	if days, ok := DeadlineTable[frequency]; ok {
		return days
	}
	return defaultDeadlineDays
}

// Result is the classification of one facility/program pairing.
type Result struct {
	ProgramID    string     `json:"programId"`
	ProgramName  string     `json:"programName"`
	Status       Status     `json:"status"`
	SubmissionID string     `json:"submissionId,omitempty"`
	FileURL      string     `json:"fileUrl,omitempty"`
	SubmittedOn  *time.Time `json:"submittedOn,omitempty"`
	DaysSince    int        `json:"daysSince,omitempty"`
	DeadlineDays int        `json:"deadlineDays"`
}

// Rule evaluates compliance against a fixed clock and time zone.
type Rule struct {
	Now      func() time.Time
	Location *time.Location
}

// NewRule constructs a Rule. A nil clock uses time.Now and a nil location uses time.Local.
func NewRule(now func() time.Time, loc *time.Location) Rule {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Rule{Now: now, Location: loc}
}

func (r Rule) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Rule) now() time.Time {
	if r.Now == nil {
		return time.Now().In(r.location())
	}
	return r.Now().In(r.location())
}

// StatusFor classifies the latest submission of facilityID for program.
func (r Rule) StatusFor(facilityID string, program models.Program, records []Record) Result {
	result := Result{
		ProgramID:    program.ID,
		ProgramName:  program.Name,
		Status:       StatusPending,
		DeadlineDays: DeadlineDays(program.Frequency),
	}

	latest, ok := latestFor(facilityID, program, records)
	if !ok {
		return result
	}

	submittedOn := latest.SubmittedOn
	result.SubmissionID = latest.ID
	result.FileURL = latest.FileURL
	result.SubmittedOn = &submittedOn

	switch latest.Review {
	case ReviewRejected:
		result.Status = StatusRejected
		return result
	case ReviewPending:
		result.Status = StatusPendingConfirmation
		return result
	}

	days := morbidity.DaysBetween(submittedOn.In(r.location()), r.now())
	result.DaysSince = days
	if days <= result.DeadlineDays {
		result.Status = StatusSubmitted
	} else {
		result.Status = StatusOverdue
	}
	return result
}

// latestFor picks the most recent matching record. Ties keep the first one seen.
func latestFor(facilityID string, program models.Program, records []Record) (Record, bool) {
	var (
		latest Record
		found  bool
	)
	for _, rec := range records {
		if rec.FacilityID != facilityID || !Matches(program, rec) {
			continue
		}
		if !found || rec.SubmittedOn.After(latest.SubmittedOn) {
			latest = rec
			found = true
		}
	}
	return latest, found
}
