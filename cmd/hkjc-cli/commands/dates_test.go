package commands

import (
	"errors"
	"testing"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/services/extraction"
	"hkracing-backend/services/racedates"

	"github.com/stretchr/testify/require"
)

func dayReport(t *testing.T, errs ...error) extraction.Report {
	t.Helper()
	report := extraction.Report{Date: "2025-07-01", Venue: hkjc.ShaTin}
	for i, err := range errs {
		key, keyErr := hkjc.NewRaceKey("2025-07-01", hkjc.ShaTin, i+1)
		require.NoError(t, keyErr)
		report.Outcomes = append(report.Outcomes, extraction.RaceOutcome{Key: key, Err: err})
	}
	return report
}

func TestDayOutcome(t *testing.T) {
	s, note := dayOutcome(dayReport(t, nil, nil))
	require.Equal(t, racedates.StatusCompleted, s)
	require.Empty(t, note)

	// probed day: one attempt, no content
	s, note = dayOutcome(dayReport(t, hkjc.ErrNoData))
	require.Equal(t, racedates.StatusNoRacing, s)
	require.NotEmpty(t, note)

	// seeded card size where every race came back empty is still a
	// day without racing, not a failure
	s, _ = dayOutcome(dayReport(t, hkjc.ErrNoData, hkjc.ErrNoData, hkjc.ErrNoData))
	require.Equal(t, racedates.StatusNoRacing, s)

	s, note = dayOutcome(dayReport(t, nil, errors.New("boom"), hkjc.ErrNoData))
	require.Equal(t, racedates.StatusFailed, s)
	require.Equal(t, "2 of 3 races failed", note)

	s, _ = dayOutcome(dayReport(t))
	require.Equal(t, racedates.StatusCompleted, s)
}
