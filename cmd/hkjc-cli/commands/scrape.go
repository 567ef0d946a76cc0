package commands

import (
	"fmt"
	"strconv"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/services/extraction"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(oddsCmd)
	rootCmd.AddCommand(resultsCmd)
}

// parseRaceArgs turns "DATE VENUE [RACE]" into a venue-qualified date
// and an optional race number (0 means the whole card).
func parseRaceArgs(args []string) (string, hkjc.Venue, int, error) {
	venue, err := hkjc.ParseVenue(args[1])
	if err != nil {
		return "", "", 0, err
	}
	// validates the date format up front
	if _, err := hkjc.NewRaceKey(args[0], venue, 1); err != nil {
		return "", "", 0, err
	}

	race := 0
	if len(args) == 3 {
		race, err = strconv.Atoi(args[2])
		if err != nil || race < 1 {
			return "", "", 0, fmt.Errorf("bad race number %q", args[2])
		}
	}
	return args[0], venue, race, nil
}

func runScrape(cmd *cobra.Command, args []string, target extraction.Target) {
	date, venue, race, err := parseRaceArgs(args)
	if err != nil {
		fatal("bad arguments", err)
	}

	ctx := cmd.Context()
	cfg := readConfig()
	service := newService(ctx, cfg)

	if race > 0 {
		key, err := hkjc.NewRaceKey(date, venue, race)
		if err != nil {
			fatal("bad race key", err)
		}
		outcome := service.ExtractRace(ctx, key, target)
		report := extraction.Report{Date: date, Venue: venue, Outcomes: []extraction.RaceOutcome{outcome}}
		fmt.Println(report.Render())
		if outcome.Err != nil {
			fatal("extraction failed", outcome.Err)
		}
		return
	}

	report, err := service.RunDay(ctx, date, venue, 0, target)
	if err != nil {
		fatal("run aborted", err)
	}
	fmt.Println(report.Render())
}

var oddsCmd = &cobra.Command{
	Use:   "odds <date> <venue> [race]",
	Short: "Scrapes win odds trends for one race or a whole meeting.",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(cmd, args, extraction.Target{Odds: true})
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <date> <venue> [race]",
	Short: "Scrapes results, payouts and incident reports for one race or a whole meeting.",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(cmd, args, extraction.Target{Results: true})
	},
}
