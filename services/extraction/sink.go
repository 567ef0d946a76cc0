package extraction

import (
	"context"

	"hkracing-backend/lib/pocketbase"
	"hkracing-backend/lib/scrapers/hkjc"
)

// remote collection names
const (
	CollectionOdds             = "race_odds"
	CollectionPerformance      = "race_performance"
	CollectionHorsePerformance = "race_horse_performance"
	CollectionPayouts          = "race_payouts"
	CollectionPayoutPools      = "race_payout_pools"
	CollectionIncidents        = "race_incidents"
	CollectionIncidentAnalysis = "race_incident_analysis"
)

// raceFilter selects a race's records by natural key in any
// collection.
func raceFilter(key hkjc.RaceKey) string {
	return pocketbase.Filter(`race_date={} && venue={} && race_number={}`,
		key.DateString(), string(key.Venue), key.Number)
}

func raceFields(info hkjc.RaceInfo) map[string]any {
	return map[string]any{
		"race_date":         info.RaceDate,
		"venue":             string(info.Venue),
		"race_number":       info.RaceNumber,
		"source_url":        info.SourceURL,
		"scraped_at":        info.ScrapedAt,
		"extraction_status": string(info.Status),
	}
}

func (s Service) pushOdds(ctx context.Context, key hkjc.RaceKey, record hkjc.OddsRecord) error {
	if s.opts.Sink == nil {
		return nil
	}

	body := raceFields(record.Race)
	body["time_slots"] = record.TimeSlots
	body["horses_data"] = record.Horses
	if len(record.Quality) > 0 {
		body["data_quality"] = record.Quality
	}
	return s.opts.Sink.UpsertOne(ctx, CollectionOdds, raceFilter(key), body)
}

func (s Service) pushResults(ctx context.Context, key hkjc.RaceKey, bundle ResultsBundle) error {
	if s.opts.Sink == nil {
		return nil
	}
	filter := raceFilter(key)

	// one summary record per race
	perf := raceFields(bundle.Results.Race)
	perf["class_distance_text"] = bundle.Results.ClassDistanceText
	perf["race_class"] = bundle.Results.RaceClass
	perf["distance"] = bundle.Results.Distance
	perf["going"] = bundle.Results.Going
	perf["prize_money"] = bundle.Results.PrizeMoney
	perf["total_horses"] = len(bundle.Results.Finishes)
	if len(bundle.Results.Quality) > 0 {
		perf["data_quality"] = bundle.Results.Quality
	}
	if err := s.opts.Sink.UpsertOne(ctx, CollectionPerformance, filter, perf); err != nil {
		return err
	}

	// one record per finisher, replaced wholesale on re-scrape
	horses := make([]any, len(bundle.Results.Finishes))
	for i, entry := range bundle.Results.Finishes {
		body := raceFields(bundle.Results.Race)
		body["position"] = entry.Position
		body["horse_number"] = entry.HorseNumber
		body["horse_name"] = entry.HorseName
		body["horse_code"] = entry.HorseCode
		body["jockey"] = entry.Jockey
		body["trainer"] = entry.Trainer
		body["actual_weight"] = entry.ActualWeight
		body["declared_weight"] = entry.DeclaredWeight
		body["draw"] = entry.Draw
		body["margin"] = entry.Margin
		body["running_position"] = entry.RunningPosition
		body["finish_time"] = entry.FinishTime
		body["win_odds"] = entry.WinOdds
		horses[i] = body
	}
	if err := s.opts.Sink.ReplaceAll(ctx, CollectionHorsePerformance, filter, horses); err != nil {
		return err
	}

	payouts := raceFields(bundle.Payouts.Race)
	payouts["pools"] = bundle.Payouts.Pools
	if len(bundle.Payouts.Quality) > 0 {
		payouts["data_quality"] = bundle.Payouts.Quality
	}
	if err := s.opts.Sink.UpsertOne(ctx, CollectionPayouts, filter, payouts); err != nil {
		return err
	}

	pools := make([]any, len(bundle.Payouts.Pools))
	for i, pool := range bundle.Payouts.Pools {
		body := raceFields(bundle.Payouts.Race)
		body["pool"] = pool.Name
		body["entries"] = pool.Entries
		pools[i] = body
	}
	if err := s.opts.Sink.ReplaceAll(ctx, CollectionPayoutPools, filter, pools); err != nil {
		return err
	}

	incidents := make([]any, len(bundle.Incidents.Incidents))
	for i, incident := range bundle.Incidents.Incidents {
		body := raceFields(bundle.Incidents.Race)
		body["position"] = incident.Position
		body["horse_number"] = incident.HorseNumber
		body["horse_name"] = incident.HorseName
		body["horse_name_with_code"] = incident.HorseNameWithCode
		body["incident_report"] = incident.Report
		body["incident_type"] = string(incident.Type)
		body["severity"] = string(incident.Severity)
		incidents[i] = body
	}
	if err := s.opts.Sink.ReplaceAll(ctx, CollectionIncidents, filter, incidents); err != nil {
		return err
	}

	analysis := raceFields(bundle.Analysis.Race)
	analysis["total_horses"] = bundle.Analysis.TotalHorses
	analysis["horses_with_incidents"] = bundle.Analysis.HorsesWithIncidents
	analysis["incident_rate"] = bundle.Analysis.IncidentRate
	analysis["incident_type_breakdown"] = bundle.Analysis.TypeBreakdown
	analysis["severity_breakdown"] = bundle.Analysis.SeverityBreakdown
	return s.opts.Sink.UpsertOne(ctx, CollectionIncidentAnalysis, filter, analysis)
}
