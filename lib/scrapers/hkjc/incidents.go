package hkjc

import (
	"strings"
	"time"

	"hkracing-backend/lib/textutil"
)

// IncidentType is the closed classification derived from stewards'
// report phrasing.
type IncidentType string

const (
	IncidentNone            IncidentType = "no_incident"
	IncidentPostRaceTesting IncidentType = "post_race_testing"
	IncidentVetExam         IncidentType = "veterinary_examination"
	IncidentBarrierTrial    IncidentType = "barrier_trial_required"
	IncidentBleeding        IncidentType = "bleeding"
	IncidentReprimand       IncidentType = "stewards_reprimand"
	IncidentStartingIssues  IncidentType = "starting_issues"
	IncidentRunningWideIn   IncidentType = "running_wide_or_in"
	IncidentInterference    IncidentType = "interference"
	IncidentBlocked         IncidentType = "blocked_or_checked"
	IncidentFractious       IncidentType = "fractious_in_gates"
	IncidentDisappointing   IncidentType = "disappointing_performance"
	IncidentOther           IncidentType = "other_incident"
)

// Severity is the ordinal seriousness of an incident.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const noIncidentReport = "無特別報告"

// ClassifyIncident maps a stewards' report to its incident type. the
// first matching family wins; order follows specificity of the
// phrasing.
func ClassifyIncident(report string) IncidentType {
	if report == "" || report == noIncidentReport {
		return IncidentNone
	}

	switch {
	case strings.Contains(report, "抽取樣本檢驗"):
		return IncidentPostRaceTesting
	case strings.Contains(report, "獸醫檢查"):
		return IncidentVetExam
	case strings.Contains(report, "試閘及格"):
		return IncidentBarrierTrial
	case strings.Contains(report, "流鼻血"):
		return IncidentBleeding
	case strings.Contains(report, "小組譴責"):
		return IncidentReprimand
	case containsAny(report, "出閘笨拙", "出閘緩慢"):
		return IncidentStartingIssues
	case containsAny(report, "向外斜跑", "向內斜跑", "斜跑"):
		return IncidentRunningWideIn
	case containsAny(report, "受擠迫", "被碰撞", "碰撞"):
		return IncidentInterference
	case containsAny(report, "收慢", "未能望空"):
		return IncidentBlocked
	case strings.Contains(report, "煩躁不安"):
		return IncidentFractious
	case strings.Contains(report, "表現令人失望"):
		return IncidentDisappointing
	}
	return IncidentOther
}

// AssessSeverity ranks a report. unclassified incidents default to
// medium rather than none so they are never silently discounted.
func AssessSeverity(report string) Severity {
	if report == "" || report == noIncidentReport {
		return SeverityNone
	}
	if containsAny(report, "流鼻血", "必須試閘及格", "小組譴責", "表現令人失望") {
		return SeverityHigh
	}
	if containsAny(report, "受擠迫", "被碰撞", "收慢", "出閘笨拙", "出閘緩慢") {
		return SeverityMedium
	}
	if containsAny(report, "抽取樣本檢驗", "獸醫檢查", "向外斜跑", "向內斜跑") {
		return SeverityLow
	}
	return SeverityMedium
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// incident rows: position (or WV/DNF), horse number, horse name, then
// the report text.
var incidentColumns = ColumnMap{
	Shape: RowShape{
		MinCells:  4,
		FirstCell: positionPattern,
	},
	Columns: []Column{
		{Field: "position", Header: "名次", Offset: 0},
		{Field: "horse_number", Header: "馬號", Offset: 1},
		{Field: "horse_name", Header: "馬名", Offset: 2},
		{Field: "report", Header: "競賽事件", Offset: 3},
	},
}

// ParseIncidents extracts per-horse stewards' reports from a located
// incidents table. "no special report" rows are kept; they carry the
// none type and let the analysis count a full field.
func ParseIncidents(t Table) []Incident {
	var incidents []Incident
	for _, rec := range incidentColumns.Parse(t) {
		report := rec["report"]
		if report == "" {
			continue
		}
		nameWithCode := rec["horse_name"]
		name, _ := textutil.SplitHorseName(nameWithCode)
		incidents = append(incidents, Incident{
			Position:          rec["position"],
			HorseNumber:       rec["horse_number"],
			HorseName:         name,
			HorseNameWithCode: nameWithCode,
			Report:            report,
			Type:              ClassifyIncident(report),
			Severity:          AssessSeverity(report),
		})
	}
	return incidents
}

// AssembleIncidents wraps parsed incidents into the per-race record.
func AssembleIncidents(key RaceKey, incidents []Incident, sourceURL string, scrapedAt time.Time) IncidentRecord {
	status := StatusSuccess
	if len(incidents) == 0 {
		status = StatusFailed
	}

	numbers := make([]string, len(incidents))
	for i, inc := range incidents {
		numbers[i] = inc.HorseNumber
	}

	return IncidentRecord{
		Race:      key.Info(sourceURL, scrapedAt, status),
		Incidents: incidents,
		Quality:   checkUniqueHorseNumbers(numbers),
	}
}

// AnalyzeIncidents computes the per-race rollup stored next to the
// individual incident rows.
func AnalyzeIncidents(record IncidentRecord) IncidentAnalysis {
	types := map[string]int{}
	severities := map[string]int{}
	withIncident := 0

	for _, inc := range record.Incidents {
		types[string(inc.Type)]++
		severities[string(inc.Severity)]++
		if inc.Type != IncidentNone {
			withIncident++
		}
	}

	rate := 0.0
	if len(record.Incidents) > 0 {
		rate = float64(withIncident) / float64(len(record.Incidents))
	}

	return IncidentAnalysis{
		Race:                record.Race,
		TotalHorses:         len(record.Incidents),
		HorsesWithIncidents: withIncident,
		IncidentRate:        rate,
		TypeBreakdown:       types,
		SeverityBreakdown:   severities,
	}
}
