package compliance

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

func TestParseReportType(t *testing.T) {
	cases := map[string]models.ReportType{
		"Weekly Summary":  models.ReportTypeWeekly,
		"WeeklySummary":   models.ReportTypeWeekly,
		"monthly summary": models.ReportTypeMonthly,
		"QUARTERLY":       models.ReportTypeQuarterly,
		"Annual Summary":  models.ReportTypeAnnual,
		"annualsummary":   models.ReportTypeAnnual,
	}
	for raw, want := range cases {
		got, err := ParseReportType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "Daily Summary", "summary"} {
		_, err := ParseReportType(raw)
		assert.ErrorIs(t, err, ErrInvalidReportType, raw)
	}
}

func TestResolveQuarterFour(t *testing.T) {
	w, err := Resolve(models.ReportTypeQuarterly, 2024, PeriodParams{Quarter: lo.ToPtr(4)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.True(t, time.Date(2024, time.December, 31, 23, 59, 59, 999999999, time.UTC).Equal(w.End))
	assert.Equal(t, "Quarterly Summary - Q4 2024", w.Title)
	assert.Equal(t, "2024-12-31 23:59:59", w.End.Format("2006-01-02 15:04:05"))
}

func TestResolveMonthlyLeapFebruary(t *testing.T) {
	w, err := Resolve(models.ReportTypeMonthly, 2024, PeriodParams{Month: lo.ToPtr(2)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.Equal(t, 29, w.End.Day())
	assert.Equal(t, "Monthly Summary - February 2024", w.Title)
}

func TestResolveWeekly(t *testing.T) {
	w, err := Resolve(models.ReportTypeWeekly, 2024, PeriodParams{Week: lo.ToPtr(12)}, time.UTC)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.True(t, time.Date(2024, time.March, 23, 23, 59, 59, 999999999, time.UTC).Equal(w.End))
	assert.Contains(t, w.Title, "Morbidity Week 12, 2024")
}

func TestResolveAnnual(t *testing.T) {
	w, err := Resolve(models.ReportTypeAnnual, 2023, PeriodParams{}, time.UTC)
	require.NoError(t, err)
	assert.True(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC).Equal(w.Start))
	assert.Equal(t, time.December, w.End.Month())
	assert.Equal(t, 31, w.End.Day())
	assert.Equal(t, "Annual Summary - 2023", w.Title)
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve(models.ReportType("Daily Summary"), 2024, PeriodParams{}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidReportType)

	_, err = Resolve(models.ReportTypeMonthly, 2024, PeriodParams{}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = Resolve(models.ReportTypeMonthly, 2024, PeriodParams{Month: lo.ToPtr(13)}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = Resolve(models.ReportTypeQuarterly, 2024, PeriodParams{Quarter: lo.ToPtr(0)}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = Resolve(models.ReportTypeWeekly, 2024, PeriodParams{Week: lo.ToPtr(54)}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = Resolve(models.ReportTypeWeekly, 2024, PeriodParams{Week: lo.ToPtr(53)}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = Resolve(models.ReportTypeAnnual, 0, PeriodParams{}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func requireContiguous(t *testing.T, windows []Window) {
	t.Helper()
	for i, w := range windows {
		require.False(t, w.End.Before(w.Start), w.Title)
		if i > 0 {
			require.True(t, windows[i-1].End.Add(time.Nanosecond).Equal(w.Start), "gap or overlap before %s", w.Title)
		}
	}
}

func TestWindowsTileTheYear(t *testing.T) {
	const year = 2024
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 23, 59, 59, 999999999, time.UTC)

	months := make([]Window, 0, 12)
	for m := 1; m <= 12; m++ {
		w, err := Resolve(models.ReportTypeMonthly, year, PeriodParams{Month: lo.ToPtr(m)}, time.UTC)
		require.NoError(t, err)
		months = append(months, w)
	}
	requireContiguous(t, months)
	assert.True(t, yearStart.Equal(months[0].Start))
	assert.True(t, yearEnd.Equal(months[11].End))

	quarters := make([]Window, 0, 4)
	for q := 1; q <= 4; q++ {
		w, err := Resolve(models.ReportTypeQuarterly, year, PeriodParams{Quarter: lo.ToPtr(q)}, time.UTC)
		require.NoError(t, err)
		quarters = append(quarters, w)
	}
	requireContiguous(t, quarters)
	assert.True(t, yearStart.Equal(quarters[0].Start))
	assert.True(t, yearEnd.Equal(quarters[3].End))
}

func TestWeeklyWindowsTileAcrossYears(t *testing.T) {
	for _, year := range []int{2020, 2024} {
		last := morbidity.Of(morbidity.FirstDayOfWeek1(year+1, time.UTC).AddDate(0, 0, -1))
		require.Equal(t, year, last.Year)

		weeks := make([]Window, 0, last.Number+1)
		for wk := 1; wk <= last.Number; wk++ {
			w, err := Resolve(models.ReportTypeWeekly, year, PeriodParams{Week: lo.ToPtr(wk)}, time.UTC)
			require.NoError(t, err)
			weeks = append(weeks, w)
		}
		next, err := Resolve(models.ReportTypeWeekly, year+1, PeriodParams{Week: lo.ToPtr(1)}, time.UTC)
		require.NoError(t, err)
		requireContiguous(t, append(weeks, next))
	}
}

func TestResolveWeekFiftyThreeOnlyInLongYears(t *testing.T) {
	w53, err := Resolve(models.ReportTypeWeekly, 2020, PeriodParams{Week: lo.ToPtr(53)}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2020-12-27", w53.Start.Format(time.DateOnly))
	assert.Equal(t, "2021-01-02", w53.End.Format(time.DateOnly))

	w1, err := Resolve(models.ReportTypeWeekly, 2025, PeriodParams{Week: lo.ToPtr(1)}, time.UTC)
	require.NoError(t, err)
	_, err = Resolve(models.ReportTypeWeekly, 2024, PeriodParams{Week: lo.ToPtr(53)}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Equal(t, "2024-12-29", w1.Start.Format(time.DateOnly))
}

func TestFilterSubmissions(t *testing.T) {
	window, err := Resolve(models.ReportTypeMonthly, 2024, PeriodParams{Month: lo.ToPtr(3)}, time.UTC)
	require.NoError(t, err)

	records := []Record{
		record("in", "fac-1", "dengue", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), ReviewApproved),
		record("edge", "fac-1", "dengue", time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC), ReviewPending),
		record("before", "fac-1", "dengue", time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC), ReviewApproved),
		record("after", "fac-1", "dengue", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), ReviewApproved),
		record("other", "fac-1", "rabies", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), ReviewApproved),
	}
	got := FilterSubmissions(records, weeklyProgram, window)
	assert.Equal(t, []string{"in", "edge"}, lo.Map(got, func(r Record, _ int) string { return r.ID }))

	composite := []Record{{ID: "m", ProgramID: "measles", GroupKey: "pidsr-batch", SubmittedOn: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)}}
	assert.Len(t, FilterSubmissions(composite, pidsrProgram, window), 1)
}

func TestCountByFacility(t *testing.T) {
	records := []Record{
		{ID: "1", FacilityID: "fac-2", FacilityName: "Sagada RHU", Review: ReviewApproved, ZeroCase: true},
		{ID: "2", FacilityID: "fac-1", FacilityName: "Bontoc General Hospital", Review: ReviewPending},
		{ID: "3", FacilityID: "fac-2", FacilityName: "Sagada RHU", Review: ReviewRejected},
		{ID: "4", FacilityID: "fac-2", FacilityName: "Sagada RHU", Review: ReviewPending},
	}
	counts := CountByFacility(records)
	require.Len(t, counts, 2)
	assert.Equal(t, FacilityCount{FacilityID: "fac-1", FacilityName: "Bontoc General Hospital", Total: 1, Pending: 1}, counts[0])
	assert.Equal(t, FacilityCount{FacilityID: "fac-2", FacilityName: "Sagada RHU", Total: 3, Approved: 1, Pending: 1, Rejected: 1, ZeroCase: 1}, counts[1])
	assert.Empty(t, CountByFacility(nil))
}
