package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOdds(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		ok    bool
	}{
		{"4.5", 4.5, true},
		{"1.0", 1.0, true},
		{"999", 999, true},
		{"1,023", 0, false},
		{"1000", 0, false},
		{"0", 0, false},
		{"-2.5", 0, false},
		{"--", 0, false},
		{"", 0, false},
		{"退出", 0, false},
	}
	for _, c := range cases {
		v, ok := ParseOdds(c.in)
		require.Equal(t, c.ok, ok, c.in)
		if ok {
			require.Equal(t, c.value, v, c.in)
		}
	}
}

func TestIsTimeSlot(t *testing.T) {
	require.True(t, IsTimeSlot("07:30"))
	require.True(t, IsTimeSlot("15:59"))
	require.False(t, IsTimeSlot("1:02.31"))
	require.False(t, IsTimeSlot("獨贏賠率"))
	require.False(t, IsTimeSlot(""))
}

func TestIsFinishTime(t *testing.T) {
	require.True(t, IsFinishTime("1:09.31"))
	require.True(t, IsFinishTime("2:02.80"))
	require.False(t, IsFinishTime("07:30"))
}

func TestParseRaceClass(t *testing.T) {
	require.Equal(t, 4, ParseRaceClass("第四班 - 1200米 - (40-0)"))
	require.Equal(t, 1, ParseRaceClass("第一班 - 1600米"))
	require.Equal(t, 0, ParseRaceClass("三級賽 - 1400米"))
}

func TestParseDistance(t *testing.T) {
	require.Equal(t, 1200, ParseDistance("第四班 - 1200米 - (40-0)"))
	require.Equal(t, 0, ParseDistance("第四班"))
}

func TestSplitHorseName(t *testing.T) {
	name, code := SplitHorseName("爆冷 (E100)")
	require.Equal(t, "爆冷", name)
	require.Equal(t, "E100", code)

	name, code = SplitHorseName("Happy Horse")
	require.Equal(t, "Happy Horse", name)
	require.Equal(t, "", code)
}
