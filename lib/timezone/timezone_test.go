package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsSettledRaceDate(t *testing.T) {
	now := time.Date(2025, 7, 4, 9, 30, 0, 0, Location)

	cases := []struct {
		date   string
		expect bool
	}{
		{"2025-07-03", true},
		{"2025-07-04", false},
		{"2025-07-05", false},
		{"2025-06-01", true},
	}

	for _, c := range cases {
		date, err := ParseRaceDate(c.date)
		require.NoError(t, err)
		require.Equal(t, c.expect, IsSettledRaceDate(date, now), c.date)
	}
}

func TestIsSettledRaceDateOtherZone(t *testing.T) {
	// 2025-07-04 02:00 UTC is already 10:00 on the 4th in Hong Kong,
	// so the 3rd must count as settled and the 4th must not.
	now := time.Date(2025, 7, 4, 2, 0, 0, 0, time.UTC)

	settled, err := ParseRaceDate("2025-07-03")
	require.NoError(t, err)
	require.True(t, IsSettledRaceDate(settled, now))

	today, err := ParseRaceDate("2025-07-04")
	require.NoError(t, err)
	require.False(t, IsSettledRaceDate(today, now))
}

func TestParseRaceDateInvalid(t *testing.T) {
	_, err := ParseRaceDate("2025-13-01")
	require.Error(t, err)
	_, err = ParseRaceDate("")
	require.Error(t, err)
}
