package dto

import (
	"time"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
)

// ComplianceDashboardResponse is the admin/PHO compliance overview.
type ComplianceDashboardResponse struct {
	GeneratedAt time.Time                  `json:"generatedAt"`
	CurrentWeek WeekResponse               `json:"currentWeek"`
	Facilities  []FacilityComplianceStatus `json:"facilities"`
	Programs    []ProgramComplianceSummary `json:"programs"`
	Skipped     int                        `json:"skippedSubmissions"`
}

// FacilityComplianceStatus is one facility row of the dashboard.
type FacilityComplianceStatus struct {
	FacilityID   string              `json:"facilityId"`
	FacilityName string              `json:"facilityName"`
	Overall      compliance.Status   `json:"overall"`
	Programs     []compliance.Result `json:"programs"`
}

// ProgramComplianceSummary reports how many required facilities reported in the current period.
type ProgramComplianceSummary struct {
	ProgramID   string            `json:"programId"`
	ProgramName string            `json:"programName"`
	Period      compliance.Period `json:"period"`
	Total       int               `json:"total"`
	Submitted   int               `json:"submitted"`
	Pending     int               `json:"pending"`
	Rate        float64           `json:"rate"`
}

// NewProgramComplianceSummary converts aggregator counts for the wire.
func NewProgramComplianceSummary(c compliance.Counts) ProgramComplianceSummary {
	return ProgramComplianceSummary{
		ProgramID:   c.ProgramID,
		ProgramName: c.ProgramName,
		Period:      c.Period,
		Total:       c.Total,
		Submitted:   c.Submitted,
		Pending:     c.Pending,
		Rate:        c.Rate.InexactFloat64(),
	}
}

// DeadlineResponse lists the staleness allowed per program frequency.
type DeadlineResponse struct {
	Frequency string `json:"frequency"`
	Days      int    `json:"days"`
}
