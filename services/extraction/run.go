package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel/attribute"
)

// Target selects which pages a run scrapes per race.
type Target struct {
	Odds    bool
	Results bool
}

// defaultMaxRaces bounds probing when the card size is unknown. HK
// meetings run at most 11 races.
const defaultMaxRaces = 11

type RaceOutcome struct {
	Key     hkjc.RaceKey
	Odds    hkjc.ExtractionStatus
	Results hkjc.ExtractionStatus
	Err     error
}

// Report summarizes one meeting's extraction run.
type Report struct {
	Date     string
	Venue    hkjc.Venue
	Outcomes []RaceOutcome
}

func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Render draws the per-race outcome table shown at the end of a run.
func (r Report) Render() string {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.SetTitle("%s %s", r.Date, r.Venue)
	w.AppendHeader(table.Row{"Race", "Odds", "Results", "Error"})
	for _, o := range r.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		w.AppendRow(table.Row{o.Key.Number, statusCell(o.Odds), statusCell(o.Results), errText})
	}
	w.AppendFooter(table.Row{"", "", "ok", r.Succeeded()})
	return w.Render()
}

func statusCell(status hkjc.ExtractionStatus) string {
	if status == "" {
		return "-"
	}
	return string(status)
}

// RunDay scrapes every race of one meeting, isolating failures per
// race. races is the card size when known; 0 probes race by race and
// stops at the first race the site has no data for.
func (s Service) RunDay(ctx context.Context, date string, venue hkjc.Venue, races int, target Target) (Report, error) {
	ctx, span := tracer.Start(ctx, "RunDay")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", date),
		attribute.String("venue", string(venue)),
		attribute.Int("races", races),
	)

	report := Report{Date: date, Venue: venue}

	probing := races == 0
	if probing {
		races = defaultMaxRaces
	}

	for number := 1; number <= races; number++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if number > 1 && s.opts.RaceDelay > 0 {
			time.Sleep(s.opts.RaceDelay)
		}

		key, err := hkjc.NewRaceKey(date, venue, number)
		if err != nil {
			return report, err
		}

		outcome := s.ExtractRace(ctx, key, target)
		if probing && number > 1 && errors.Is(outcome.Err, hkjc.ErrNoData) {
			// ran off the end of the card
			break
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Err != nil {
			slog.ErrorContext(ctx, "race extraction failed",
				"race", key.String(), "err", outcome.Err)
		}
	}
	return report, nil
}

// ExtractRace scrapes one race's selected pages and reports the
// outcome instead of failing the batch.
func (s Service) ExtractRace(ctx context.Context, key hkjc.RaceKey, target Target) RaceOutcome {
	outcome := RaceOutcome{Key: key}

	// today's races still carry in-progress odds; scraping them would
	// store a snapshot that looks final but isn't
	if !timezone.IsSettledRaceDate(key.Date, timezone.Now()) {
		outcome.Err = fmt.Errorf("race date %s has not settled yet", key.DateString())
		return outcome
	}

	if target.Odds {
		record, err := s.ExtractOdds(ctx, key)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Odds = record.Race.Status
	}
	if target.Results {
		bundle, err := s.ExtractResults(ctx, key)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Results = bundle.Results.Race.Status
	}
	return outcome
}
