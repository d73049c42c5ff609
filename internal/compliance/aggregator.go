package compliance

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

// Matches reports whether rec counts toward program. Composite programs are
// also satisfied by any record uploaded under their group key.
func Matches(program models.Program, rec Record) bool {
	if rec.ProgramID == program.ID {
		return true
	}
	return program.IsComposite() && rec.GroupKey == program.CompositeGroupKey
}

// RequiredPrograms returns the programs facilityID must report on, derived
// from the assignments of its active users. Program ids missing from
// programs are ignored, as are inactive programs. The result is ordered by name.
func RequiredPrograms(facilityID string, users []models.User, programs []models.Program) []models.Program {
	byID := lo.KeyBy(lo.Filter(programs, func(p models.Program, _ int) bool { return p.Active }),
		func(p models.Program) string { return p.ID })

	assigned := lo.FlatMap(facilityUsers(facilityID, users), func(u models.User, _ int) []string {
		return u.AssignedPrograms
	})

	required := make([]models.Program, 0, len(byID))
	for _, id := range lo.Uniq(assigned) {
		if p, ok := byID[id]; ok {
			required = append(required, p)
		}
	}
	sort.SliceStable(required, func(i, j int) bool { return required[i].Name < required[j].Name })
	return required
}

func facilityUsers(facilityID string, users []models.User) []models.User {
	return lo.Filter(users, func(u models.User, _ int) bool {
		return u.Active && u.BelongsTo(facilityID)
	})
}

// FacilityProgramStatuses classifies every program the facility must report on.
func (r Rule) FacilityProgramStatuses(facilityID string, users []models.User, programs []models.Program, records []Record) []Result {
	required := RequiredPrograms(facilityID, users, programs)
	results := make([]Result, 0, len(required))
	for _, p := range required {
		results = append(results, r.StatusFor(facilityID, p, records))
	}
	return results
}

// FacilityOverallStatus rolls the facility's program statuses into one.
// Overdue outranks Pending and Pending Confirmation, which outrank Submitted.
func (r Rule) FacilityOverallStatus(facility models.Facility, users []models.User, programs []models.Program, records []Record) Status {
	if len(facilityUsers(facility.ID, users)) == 0 {
		return StatusNoUser
	}
	results := r.FacilityProgramStatuses(facility.ID, users, programs, records)
	return Rollup(results)
}

// Rollup applies the facility priority rule to already computed results.
// An empty slice means nothing is required.
func Rollup(results []Result) Status {
	if len(results) == 0 {
		return StatusNotApplicable
	}
	hasStatus := func(statuses ...Status) bool {
		return lo.ContainsBy(results, func(res Result) bool { return lo.Contains(statuses, res.Status) })
	}
	switch {
	case hasStatus(StatusOverdue):
		return StatusOverdue
	case hasStatus(StatusPending, StatusPendingConfirmation):
		return StatusPending
	case lo.EveryBy(results, func(res Result) bool { return res.Status == StatusSubmitted }):
		return StatusSubmitted
	default:
		return StatusPending
	}
}

// Period is one reporting period of a program.
type Period struct {
	Type    models.Frequency `json:"type"`
	Year    int              `json:"year"`
	Week    int              `json:"week,omitempty"`
	Month   int              `json:"month,omitempty"`
	Quarter int              `json:"quarter,omitempty"`
}

// CurrentPeriod returns the period of the program's period type that contains now.
func CurrentPeriod(program models.Program, now time.Time) Period {
	return periodOf(program.EffectivePeriodType(), now)
}

func periodOf(kind models.Frequency, t time.Time) Period {
	switch kind {
	case models.FrequencyWeekly:
		w := morbidity.Of(t)
		return Period{Type: kind, Year: w.Year, Week: w.Number}
	case models.FrequencyQuarterly:
		return Period{Type: kind, Year: t.Year(), Quarter: quarterOf(int(t.Month()))}
	case models.FrequencyAnnually:
		return Period{Type: kind, Year: t.Year()}
	default:
		return Period{Type: models.FrequencyMonthly, Year: t.Year(), Month: int(t.Month())}
	}
}

func quarterOf(month int) int {
	return (month-1)/3 + 1
}

// Includes reports whether rec was filed for this period. Explicit period
// fields on the record win; otherwise the period is derived from SubmittedOn.
func (p Period) Includes(rec Record) bool {
	derived := periodOf(p.Type, rec.SubmittedOn)
	switch p.Type {
	case models.FrequencyWeekly:
		week, year := derived.Week, derived.Year
		if rec.MorbidityWeek > 0 {
			week = rec.MorbidityWeek
			if rec.SubmissionYear > 0 {
				year = rec.SubmissionYear
			}
		}
		return week == p.Week && year == p.Year
	case models.FrequencyQuarterly:
		month, year := recordMonth(rec)
		return quarterOf(month) == p.Quarter && year == p.Year
	case models.FrequencyAnnually:
		_, year := recordMonth(rec)
		return year == p.Year
	default:
		month, year := recordMonth(rec)
		return month == p.Month && year == p.Year
	}
}

func recordMonth(rec Record) (int, int) {
	month, year := int(rec.SubmittedOn.Month()), rec.SubmittedOn.Year()
	if rec.SubmissionMonth >= 1 && rec.SubmissionMonth <= 12 {
		month = rec.SubmissionMonth
	}
	if rec.SubmissionYear > 0 {
		year = rec.SubmissionYear
	}
	return month, year
}

// Counts summarises how many required facilities reported for a program.
type Counts struct {
	ProgramID   string          `json:"programId"`
	ProgramName string          `json:"programName"`
	Period      Period          `json:"period"`
	Total       int             `json:"total"`
	Submitted   int             `json:"submitted"`
	Pending     int             `json:"pending"`
	Rate        decimal.Decimal `json:"rate"`
}

var hundred = decimal.NewFromInt(100)

// ProgramComplianceCounts counts the facilities required to report on program
// and how many of them have an approved submission in the current period.
// Facilities are counted once no matter how many of their users carry the program.
func (r Rule) ProgramComplianceCounts(program models.Program, facilities []models.Facility, users []models.User, records []Record) Counts {
	period := CurrentPeriod(program, r.now())

	known := lo.SliceToMap(facilities, func(f models.Facility) (string, struct{}) { return f.ID, struct{}{} })
	required := lo.Uniq(lo.FilterMap(users, func(u models.User, _ int) (string, bool) {
		if !u.Active || u.FacilityID == nil || !lo.Contains(u.AssignedPrograms, program.ID) {
			return "", false
		}
		_, ok := known[*u.FacilityID]
		return *u.FacilityID, ok
	}))
	requiredSet := lo.SliceToMap(required, func(id string) (string, struct{}) { return id, struct{}{} })

	submitted := lo.Uniq(lo.FilterMap(records, func(rec Record, _ int) (string, bool) {
		if _, ok := requiredSet[rec.FacilityID]; !ok {
			return "", false
		}
		return rec.FacilityID, rec.Approved() && Matches(program, rec) && period.Includes(rec)
	}))

	counts := Counts{
		ProgramID:   program.ID,
		ProgramName: program.Name,
		Period:      period,
		Total:       len(required),
		Submitted:   len(submitted),
		Rate:        decimal.Zero,
	}
	counts.Pending = counts.Total - counts.Submitted
	if counts.Total > 0 {
		counts.Rate = decimal.NewFromInt(int64(counts.Submitted)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(counts.Total))).
			Round(1)
	}
	return counts
}
