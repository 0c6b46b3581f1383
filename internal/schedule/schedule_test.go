package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestNextDue_Intervals(t *testing.T) {
	last := date(2024, time.March, 15)

	cases := []struct {
		name string
		freq Frequency
		want time.Time
	}{
		{"annual", FrequencyAnnual, date(2025, time.March, 15)},
		{"semi-annual", FrequencySemiAnnual, date(2024, time.September, 15)},
		{"quarterly", FrequencyQuarterly, date(2024, time.June, 15)},
		{"monthly", FrequencyMonthly, date(2024, time.April, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDue(&last, tc.freq)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestNextDue_NoBaseline(t *testing.T) {
	for _, f := range []Frequency{FrequencyAnnual, FrequencySemiAnnual, FrequencyQuarterly, FrequencyMonthly, "none", ""} {
		assert.Nil(t, NextDue(nil, f))
	}
}

func TestNextDue_UnknownFrequency(t *testing.T) {
	last := date(2024, time.March, 15)
	assert.Nil(t, NextDue(&last, "Weekly"))
	assert.Nil(t, NextDue(&last, "none"))
	assert.Nil(t, NextDue(&last, ""))
}

// Перенос через конец месяца прижимается к последнему дню целевого месяца.
func TestNextDue_MonthOverflowClamping(t *testing.T) {
	cases := []struct {
		name string
		last time.Time
		freq Frequency
		want time.Time
	}{
		{"jan 31 leap year", date(2024, time.January, 31), FrequencyMonthly, date(2024, time.February, 29)},
		{"jan 31 non-leap", date(2023, time.January, 31), FrequencyMonthly, date(2023, time.February, 28)},
		{"aug 31 quarterly", date(2024, time.August, 31), FrequencyQuarterly, date(2024, time.November, 30)},
		{"oct 31 monthly", date(2024, time.October, 31), FrequencyMonthly, date(2024, time.November, 30)},
		{"feb 29 annual", date(2024, time.February, 29), FrequencyAnnual, date(2025, time.February, 28)},
		{"dec to jan year rollover", date(2024, time.December, 31), FrequencyMonthly, date(2025, time.January, 31)},
		{"aug 31 semi-annual rollover", date(2024, time.August, 31), FrequencySemiAnnual, date(2025, time.February, 28)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDue(&tc.last, tc.freq)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestNextDue_Deterministic(t *testing.T) {
	last := date(2024, time.January, 31)
	first := NextDue(&last, FrequencyMonthly)
	second := NextDue(&last, FrequencyMonthly)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestClassify_Boundaries(t *testing.T) {
	today := date(2024, time.June, 10)

	cases := []struct {
		name string
		due  *time.Time
		want Status
	}{
		{"no due date", nil, StatusUnknown},
		{"due today", &today, StatusDueSoon},
		{"due yesterday", datePtr(2024, time.June, 9), StatusOverDue},
		{"due in 30 days", datePtr(2024, time.July, 10), StatusDueSoon},
		{"due in 31 days", datePtr(2024, time.July, 11), StatusOK},
		{"long overdue", datePtr(2023, time.January, 1), StatusOverDue},
		{"far future", datePtr(2025, time.January, 1), StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.due, today))
		})
	}
}

// Время суток не должно влиять на классификацию.
func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, time.June, 10, 23, 59, 0, 0, time.UTC)
	due := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusDueSoon, Classify(&due, today))

	in30 := time.Date(2024, time.July, 10, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusDueSoon, Classify(&in30, today))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "OK", string(StatusOK))
	assert.Equal(t, "Due Soon", string(StatusDueSoon))
	assert.Equal(t, "Over Due", string(StatusOverDue))
	assert.Equal(t, "Unknown", string(StatusUnknown))
}

func TestFrequencyIsValid(t *testing.T) {
	assert.True(t, FrequencyAnnual.IsValid())
	assert.True(t, FrequencyMonthly.IsValid())
	assert.False(t, Frequency("").IsValid())
	assert.False(t, Frequency("Daily").IsValid())
}
