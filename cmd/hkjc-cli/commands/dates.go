package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/services/extraction"
	"hkracing-backend/services/racedates"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var seedRaces *int

func init() {
	seedRaces = seedCmd.Flags().Int("races", 0, "Number of races on the card, 0 when unknown.")

	datesCmd.AddCommand(seedCmd)
	datesCmd.AddCommand(listCmd)
	datesCmd.AddCommand(runCmd)
	rootCmd.AddCommand(datesCmd)
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Manages the race-date catalog driving batch extraction.",
}

func openCatalog(cfg Config) (racedates.Store, *sql.DB) {
	sqlite, err := sql.Open("sqlite", cfg.CatalogDB)
	if err != nil {
		fatal("failed to open race-date catalog", err)
	}
	store, err := racedates.NewStore(sqlite)
	if err != nil {
		fatal("failed to initialize race-date catalog", err)
	}
	return store, sqlite
}

var seedCmd = &cobra.Command{
	Use:   "seed <venue> <date>...",
	Short: "Adds race days to the catalog as pending.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		venue, err := hkjc.ParseVenue(args[0])
		if err != nil {
			fatal("bad venue", err)
		}

		var days []racedates.RaceDay
		for _, date := range args[1:] {
			if _, err := hkjc.NewRaceKey(date, venue, 1); err != nil {
				fatal("bad date", err)
			}
			days = append(days, racedates.RaceDay{Date: date, Venue: venue, Races: *seedRaces})
		}

		cfg := readConfig()
		store, sqlite := openCatalog(cfg)
		defer sqlite.Close()

		if err := store.Seed(cmd.Context(), days); err != nil {
			fatal("failed to seed catalog", err)
		}
		fmt.Printf("seeded %d race day(s)\n", len(days))
	},
}

var listCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "Lists catalog days, optionally filtered by status.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		store, sqlite := openCatalog(cfg)
		defer sqlite.Close()

		var days []racedates.RaceDay
		var err error
		if len(args) == 1 {
			days, err = store.ByStatus(cmd.Context(), racedates.Status(args[0]))
		} else {
			days, err = store.Pending(cmd.Context())
		}
		if err != nil {
			fatal("failed to list catalog", err)
		}

		w := table.NewWriter()
		w.SetOutputMirror(os.Stdout)
		w.SetStyle(table.StyleLight)
		w.AppendHeader(table.Row{"Date", "Venue", "Races", "Status", "Note"})
		for _, day := range days {
			races := ""
			if day.Races > 0 {
				races = strconv.Itoa(day.Races)
			}
			w.AppendRow(table.Row{day.Date, day.Venue, races, day.Status, day.Note})
		}
		w.Render()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extracts every pending settled race day in the catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		store, sqlite := openCatalog(cfg)
		defer sqlite.Close()

		pending, err := store.Pending(ctx)
		if err != nil {
			fatal("failed to list pending days", err)
		}
		if len(pending) == 0 {
			fmt.Println("nothing to do")
			return
		}

		service := newService(ctx, cfg)
		target := extraction.Target{Odds: true, Results: true}

		for _, day := range pending {
			report, err := service.RunDay(ctx, day.Date, day.Venue, day.Races, target)
			if err != nil {
				// context cancellation aborts the batch; the day
				// stays pending for the next run
				fatal("batch aborted", err)
			}
			fmt.Println(report.Render())

			status, note := dayOutcome(report)
			if err := store.SetStatus(ctx, day.Date, day.Venue, status, note); err != nil {
				fatal("failed to update catalog", err)
			}
		}
	},
}

func dayOutcome(report extraction.Report) (racedates.Status, string) {
	// every race missing means the whole card never ran, whether the
	// card size was probed or seeded up front
	noData := len(report.Outcomes) > 0
	for _, outcome := range report.Outcomes {
		if !errors.Is(outcome.Err, hkjc.ErrNoData) {
			noData = false
			break
		}
	}
	if noData {
		return racedates.StatusNoRacing, "no race content for date"
	}
	if failed := report.Failed(); failed > 0 {
		return racedates.StatusFailed, fmt.Sprintf("%d of %d races failed", failed, len(report.Outcomes))
	}
	return racedates.StatusCompleted, ""
}
