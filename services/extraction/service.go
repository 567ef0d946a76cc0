// Package extraction orchestrates the scrape of one or more races:
// fetch and verify the page, locate and parse its tables, assemble
// records, back them up locally, then push them to the remote store.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hkracing-backend/lib/retry"
	"hkracing-backend/lib/scrapers/hkjc"
	"hkracing-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/extraction")

// Sink receives assembled records keyed by their natural race key.
// satisfied by pocketbase.Client.
type Sink interface {
	UpsertOne(ctx context.Context, collection, filter string, body any) error
	ReplaceAll(ctx context.Context, collection, filter string, bodies []any) error
}

type Options struct {
	Client *hkjc.Client
	// Sink may be nil, in which case records only go to the local
	// backup directory.
	Sink Sink
	// BackupDir receives a JSON file per record before any push, so a
	// failed upload never loses scraped data. empty disables backups.
	BackupDir string
	Retry     retry.Policy
	// RaceDelay spaces out consecutive races of a batch.
	RaceDelay time.Duration
}

type Service struct {
	opts Options
}

func NewService(opts Options) Service {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	return Service{opts: opts}
}

func (s Service) fetchVerified(ctx context.Context, key hkjc.RaceKey, url string, mode hkjc.FetchMode) (*goquery.Document, error) {
	var doc *goquery.Document
	err := s.opts.Retry.Do(ctx, "fetch "+url, func() error {
		d, err := s.opts.Client.Fetch(ctx, url, mode)
		if err != nil {
			return err
		}
		if err := hkjc.VerifyRacePage(d, key); err != nil {
			// redirects and empty dates are properties of the key,
			// not transient failures; retrying cannot change them
			if errors.Is(err, hkjc.ErrNoData) || errors.Is(err, hkjc.ErrKeyMismatch) {
				return retry.Permanent(err)
			}
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ExtractOdds scrapes the win-odds-trend page for one race, backs the
// record up and pushes it to the race_odds collection.
func (s Service) ExtractOdds(ctx context.Context, key hkjc.RaceKey) (hkjc.OddsRecord, error) {
	ctx, span := tracer.Start(ctx, "ExtractOdds")
	defer span.End()
	span.SetAttributes(attribute.String("race", key.String()))

	url := key.OddsURL()
	doc, err := s.fetchVerified(ctx, key, url, hkjc.FetchRendered)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return hkjc.OddsRecord{}, err
	}

	table, err := hkjc.Locate(doc, hkjc.SigOddsTrend, hkjc.SigOddsGeneric)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "locate failed")
		return hkjc.OddsRecord{}, fmt.Errorf("%s: %w", key, err)
	}

	horses, slots := hkjc.ParseWinOdds(table)
	record := hkjc.AssembleOdds(key, horses, slots, url, timezone.Now())
	slog.InfoContext(ctx, "extracted odds",
		"race", key.String(),
		"horses", len(horses),
		"status", record.Race.Status)

	if err := s.backup(key, "odds", record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backup failed")
		return record, err
	}
	if err := s.pushOdds(ctx, key, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "push failed")
		return record, err
	}
	return record, nil
}

// ResultsBundle is everything extracted from one results page.
type ResultsBundle struct {
	Results   hkjc.ResultRecord
	Payouts   hkjc.PayoutRecord
	Incidents hkjc.IncidentRecord
	Analysis  hkjc.IncidentAnalysis
}

// ExtractResults scrapes the results page for one race. the page
// carries the finishing order, the payout table and the stewards'
// incident report, so all of them come from one fetch.
func (s Service) ExtractResults(ctx context.Context, key hkjc.RaceKey) (ResultsBundle, error) {
	ctx, span := tracer.Start(ctx, "ExtractResults")
	defer span.End()
	span.SetAttributes(attribute.String("race", key.String()))

	url := key.ResultsURL()
	doc, err := s.fetchVerified(ctx, key, url, hkjc.FetchStatic)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return ResultsBundle{}, err
	}

	bundle, err := s.parseResultsPage(ctx, key, doc, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return bundle, err
	}

	if err := s.backupResults(key, bundle); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backup failed")
		return bundle, err
	}
	if err := s.pushResults(ctx, key, bundle); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "push failed")
		return bundle, err
	}
	return bundle, nil
}

func (s Service) parseResultsPage(ctx context.Context, key hkjc.RaceKey, doc *goquery.Document, url string) (ResultsBundle, error) {
	now := timezone.Now()
	bundle := ResultsBundle{}

	table, err := hkjc.Locate(doc, hkjc.SigResults)
	if err != nil {
		return bundle, fmt.Errorf("%s: %w", key, err)
	}
	finishes := hkjc.ParseFinishes(table)
	meta := hkjc.ParseRaceMeta(doc)
	bundle.Results = hkjc.AssembleResults(key, meta, finishes, url, now)

	// payout and incident tables are optional page sections; their
	// absence yields failed sub-records rather than a failed scrape
	var pools []hkjc.Pool
	if payoutTable, err := hkjc.Locate(doc, hkjc.SigPayouts); err == nil {
		pools = hkjc.ParsePayouts(payoutTable)
	} else if !errors.Is(err, hkjc.ErrTableNotFound) {
		return bundle, err
	}
	bundle.Payouts = hkjc.AssemblePayouts(key, pools, url, now)

	var incidents []hkjc.Incident
	if incidentTable, err := hkjc.Locate(doc, hkjc.SigIncidents); err == nil {
		incidents = hkjc.ParseIncidents(incidentTable)
	} else if !errors.Is(err, hkjc.ErrTableNotFound) {
		return bundle, err
	}
	bundle.Incidents = hkjc.AssembleIncidents(key, incidents, url, now)
	bundle.Analysis = hkjc.AnalyzeIncidents(bundle.Incidents)

	slog.InfoContext(ctx, "extracted results",
		"race", key.String(),
		"finishes", len(finishes),
		"pools", len(pools),
		"incidents", len(incidents))
	return bundle, nil
}

func (s Service) backupResults(key hkjc.RaceKey, bundle ResultsBundle) error {
	if err := s.backup(key, "results", bundle.Results); err != nil {
		return err
	}
	if err := s.backup(key, "payouts", bundle.Payouts); err != nil {
		return err
	}
	if err := s.backup(key, "incidents", bundle.Incidents); err != nil {
		return err
	}
	return s.backup(key, "incident_analysis", bundle.Analysis)
}
