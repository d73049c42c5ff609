package models

import (
	"time"

	"github.com/lib/pq"
)

// Frequency is how often a program expects reports.
type Frequency string

const (
	FrequencyWeekly    Frequency = "Weekly"
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnually  Frequency = "Annually"
)

// Program is a health program or disease category facilities report on.
type Program struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Frequency   Frequency      `db:"frequency" json:"frequency"`
	ReportTypes pq.StringArray `db:"report_types" json:"reportTypes"`
	Active      bool           `db:"active" json:"active"`
	// PeriodType overrides the reporting period used for compliance counts.
	// Empty means the period follows Frequency.
	PeriodType Frequency `db:"period_type" json:"periodType,omitempty"`
	// CompositeGroupKey marks programs reported as a batch of per-disease
	// submissions sharing the same group key.
	CompositeGroupKey string    `db:"composite_group_key" json:"compositeGroupKey,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// EffectivePeriodType resolves the period used to decide "current period" compliance.
func (p Program) EffectivePeriodType() Frequency {
	if p.PeriodType != "" {
		return p.PeriodType
	}
	if p.Frequency == "" {
		return FrequencyMonthly
	}
	return p.Frequency
}

// IsComposite reports whether the program is satisfied by grouped sub-submissions.
func (p Program) IsComposite() bool {
	return p.CompositeGroupKey != ""
}

// Supports reports whether the program lists the given summary report type.
func (p Program) Supports(t ReportType) bool {
	for _, rt := range p.ReportTypes {
		if ReportType(rt) == t {
			return true
		}
	}
	return false
}
