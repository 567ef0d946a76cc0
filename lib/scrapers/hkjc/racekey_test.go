package hkjc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRaceKey(t *testing.T) {
	key, err := NewRaceKey("2025-07-01", ShaTin, 3)
	require.NoError(t, err)
	require.Equal(t, "2025-07-01", key.DateString())
	require.Equal(t, "2025/07/01", key.SlashDateString())
	require.Equal(t, "2025-07-01 ST R3", key.String())

	_, err = NewRaceKey("01/07/2025", ShaTin, 3)
	require.Error(t, err)

	_, err = NewRaceKey("2025-07-01", Venue("XX"), 3)
	require.Error(t, err)

	_, err = NewRaceKey("2025-07-01", HappyValley, 0)
	require.Error(t, err)
}

func TestRaceKeyURLs(t *testing.T) {
	key, err := NewRaceKey("2025-07-01", ShaTin, 3)
	require.NoError(t, err)

	require.Equal(t, "https://bet.hkjc.com/ch/racing/pwin/2025-07-01/ST/3", key.OddsURL())
	require.Equal(t,
		"https://racing.hkjc.com/racing/information/Chinese/Racing/LocalResults.aspx?RaceDate=2025/07/01&Racecourse=ST&RaceNo=3",
		key.ResultsURL())
}

func TestBackupFileName(t *testing.T) {
	key, err := NewRaceKey("2025-07-01", HappyValley, 8)
	require.NoError(t, err)
	require.Equal(t, "odds_2025_07_01_HV_R8.json", key.BackupFileName("odds"))
	require.Equal(t, "results_2025_07_01_HV_R8.json", key.BackupFileName("results"))
}

func TestParseOddsURL(t *testing.T) {
	for _, url := range []string{
		"https://bet.hkjc.com/ch/racing/pwin/2025-07-01/ST/3",
		"https://bet.hkjc.com/ch/racing/wp/2025-07-01/ST/3",
	} {
		key, err := ParseOddsURL(url)
		require.NoError(t, err, url)
		require.Equal(t, "2025-07-01", key.DateString())
		require.Equal(t, ShaTin, key.Venue)
		require.Equal(t, 3, key.Number)
	}

	_, err := ParseOddsURL("https://bet.hkjc.com/ch/racing/pwin/2025-07-01/XX/3")
	require.Error(t, err)

	_, err = ParseOddsURL("https://example.com/racing/pwin/2025-07-01/ST/3")
	require.Error(t, err)
}

func TestParseVenue(t *testing.T) {
	v, err := ParseVenue("ST")
	require.NoError(t, err)
	require.Equal(t, "沙田", v.ChineseName())

	v, err = ParseVenue("HV")
	require.NoError(t, err)
	require.Equal(t, "跑馬地", v.ChineseName())

	_, err = ParseVenue("AQ")
	require.Error(t, err)
}
