package racedates

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/lib/telemetry"
	"hkracing-backend/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) Store {
	cleanup := telemetry.SetupForTesting(t, "test:racedates")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	store, err := NewStore(sqlite)
	require.NoError(t, err)
	return store
}

func TestSeedAndPending(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	past := timezone.Now().AddDate(0, 0, -7).Format("2006-01-02")
	yesterday := timezone.Now().AddDate(0, 0, -1).Format("2006-01-02")
	today := timezone.Now().Format("2006-01-02")
	future := timezone.Now().AddDate(0, 0, 7).Format("2006-01-02")

	err := store.Seed(ctx, []RaceDay{
		{Date: past, Venue: hkjc.ShaTin, Races: 10},
		{Date: yesterday, Venue: hkjc.HappyValley, Races: 8},
		{Date: today, Venue: hkjc.ShaTin},
		{Date: future, Venue: hkjc.ShaTin},
	})
	require.NoError(t, err)

	// today's and future meetings are not settled yet
	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, past, pending[0].Date)
	require.Equal(t, yesterday, pending[1].Date)
	require.Equal(t, hkjc.HappyValley, pending[1].Venue)
	require.Equal(t, 8, pending[1].Races)
}

func TestSeedHonorsCallerStatus(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	date := timezone.Now().AddDate(0, 0, -5).Format("2006-01-02")
	require.NoError(t, store.Seed(ctx, []RaceDay{
		{Date: date, Venue: hkjc.ShaTin, Status: StatusNoRacing, Note: "typhoon signal 8"},
		{Date: date, Venue: hkjc.HappyValley, Races: 8},
	}))

	// a day seeded settled never enters the work queue
	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, hkjc.HappyValley, pending[0].Venue)

	noRacing, err := store.ByStatus(ctx, StatusNoRacing)
	require.NoError(t, err)
	require.Len(t, noRacing, 1)
	require.Equal(t, "typhoon signal 8", noRacing[0].Note)
}

func TestSeedPreservesExistingStatus(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	date := timezone.Now().AddDate(0, 0, -3).Format("2006-01-02")
	require.NoError(t, store.Seed(ctx, []RaceDay{{Date: date, Venue: hkjc.ShaTin, Races: 10}}))
	require.NoError(t, store.SetStatus(ctx, date, hkjc.ShaTin, StatusCompleted, ""))

	require.NoError(t, store.Seed(ctx, []RaceDay{{Date: date, Venue: hkjc.ShaTin, Races: 10}}))

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	completed, err := store.ByStatus(ctx, StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
}

func TestSetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	date := timezone.Now().AddDate(0, 0, -2).Format("2006-01-02")
	require.NoError(t, store.Seed(ctx, []RaceDay{
		{Date: date, Venue: hkjc.ShaTin, Races: 10},
		{Date: date, Venue: hkjc.HappyValley, Races: 8},
	}))

	require.NoError(t, store.SetStatus(ctx, date, hkjc.ShaTin, StatusNoRacing, "redirected"))
	require.NoError(t, store.SetStatus(ctx, date, hkjc.HappyValley, StatusFailed, "fetch timeout"))

	failed, err := store.ByStatus(ctx, StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "fetch timeout", failed[0].Note)

	// unknown day is an error, not a silent no-op
	require.Error(t, store.SetStatus(ctx, "1999-01-01", hkjc.ShaTin, StatusCompleted, ""))

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts[StatusNoRacing])
	require.Equal(t, 1, counts[StatusFailed])
}
