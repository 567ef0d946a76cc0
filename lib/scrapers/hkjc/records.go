package hkjc

import (
	"fmt"
	"strconv"
	"time"
)

// ExtractionStatus tags each record with how complete its scrape was.
// a later "success" scrape for the same key replaces an earlier
// "partial" one in the remote store.
type ExtractionStatus string

const (
	StatusSuccess ExtractionStatus = "success"
	StatusPartial ExtractionStatus = "partial"
	StatusFailed  ExtractionStatus = "failed"
)

// RaceInfo is the provenance header carried by every assembled record.
type RaceInfo struct {
	RaceDate   string           `json:"race_date"`
	Venue      Venue            `json:"venue"`
	RaceNumber int              `json:"race_number"`
	SourceURL  string           `json:"source_url"`
	ScrapedAt  string           `json:"scraped_at"`
	Status     ExtractionStatus `json:"extraction_status"`
}

func (k RaceKey) Info(sourceURL string, scrapedAt time.Time, status ExtractionStatus) RaceInfo {
	return RaceInfo{
		RaceDate:   k.DateString(),
		Venue:      k.Venue,
		RaceNumber: k.Number,
		SourceURL:  sourceURL,
		ScrapedAt:  scrapedAt.Format(time.RFC3339),
		Status:     status,
	}
}

// OddsSnapshot is one point of a win-odds trend. odds stay strings:
// the pages render values like "4.5" and round-tripping them through
// float64 would invent digits.
type OddsSnapshot struct {
	Time string `json:"time"`
	Odds string `json:"odds"`
}

type HorseOdds struct {
	HorseNumber  string         `json:"horse_number"`
	HorseName    string         `json:"horse_name"`
	Gate         string         `json:"gate"`
	Weight       string         `json:"weight"`
	Jockey       string         `json:"jockey"`
	Trainer      string         `json:"trainer"`
	WinOddsTrend []OddsSnapshot `json:"win_odds_trend"`
	PlaceOdds    string         `json:"place_odds,omitempty"`
}

// OddsRecord is the assembled win-odds-trend record for one race.
type OddsRecord struct {
	Race      RaceInfo    `json:"race_info"`
	TimeSlots []string    `json:"time_slots"`
	Horses    []HorseOdds `json:"horses_data"`
	Quality   []string    `json:"data_quality,omitempty"`
}

// FinishEntry is one row of the finishing order. Position is kept as
// text because withdrawn and non-finishing horses carry "WV"/"DNF"
// markers instead of a number.
type FinishEntry struct {
	Position        string `json:"position"`
	HorseNumber     string `json:"horse_number"`
	HorseName       string `json:"horse_name"`
	HorseCode       string `json:"horse_code,omitempty"`
	Jockey          string `json:"jockey"`
	Trainer         string `json:"trainer"`
	ActualWeight    string `json:"actual_weight"`
	DeclaredWeight  string `json:"declared_weight"`
	Draw            string `json:"draw"`
	Margin          string `json:"margin"`
	RunningPosition string `json:"running_position"`
	FinishTime      string `json:"finish_time"`
	WinOdds         string `json:"win_odds"`
}

// NumericPosition reports the finishing position as an integer, false
// for WV/DNF markers.
func (e FinishEntry) NumericPosition() (int, bool) {
	n, err := strconv.Atoi(e.Position)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ResultRecord is the assembled results record for one race.
type ResultRecord struct {
	Race              RaceInfo      `json:"race_info"`
	ClassDistanceText string        `json:"class_distance_text,omitempty"`
	RaceClass         int           `json:"race_class,omitempty"`
	Distance          int           `json:"distance,omitempty"`
	Going             string        `json:"going,omitempty"`
	PrizeMoney        string        `json:"prize_money,omitempty"`
	Finishes          []FinishEntry `json:"finishes"`
	Quality           []string      `json:"data_quality,omitempty"`
}

type PayoutEntry struct {
	Combination string `json:"combination"`
	Payout      string `json:"payout"`
}

// Pool is one betting pool's payout table. pools keep their original
// Chinese labels (獨贏, 位置, 連贏, ...).
type Pool struct {
	Name    string        `json:"pool"`
	Entries []PayoutEntry `json:"entries"`
}

type PayoutRecord struct {
	Race    RaceInfo `json:"race_info"`
	Pools   []Pool   `json:"pools"`
	Quality []string `json:"data_quality,omitempty"`
}

type Incident struct {
	Position          string       `json:"position"`
	HorseNumber       string       `json:"horse_number"`
	HorseName         string       `json:"horse_name"`
	HorseNameWithCode string       `json:"horse_name_with_code"`
	Report            string       `json:"incident_report"`
	Type              IncidentType `json:"incident_type"`
	Severity          Severity     `json:"severity"`
}

type IncidentRecord struct {
	Race      RaceInfo   `json:"race_info"`
	Incidents []Incident `json:"incidents"`
	Quality   []string   `json:"data_quality,omitempty"`
}

// IncidentAnalysis is the per-race rollup stored alongside individual
// incident rows.
type IncidentAnalysis struct {
	Race                RaceInfo       `json:"race_info"`
	TotalHorses         int            `json:"total_horses"`
	HorsesWithIncidents int            `json:"horses_with_incidents"`
	IncidentRate        float64        `json:"incident_rate"`
	TypeBreakdown       map[string]int `json:"incident_type_breakdown"`
	SeverityBreakdown   map[string]int `json:"severity_breakdown"`
}

// checkUniqueHorseNumbers flags duplicate horse numbers within a race.
// violations do not fail assembly; downstream consumers decide whether
// to accept partial data.
func checkUniqueHorseNumbers(numbers []string) []string {
	seen := map[string]bool{}
	var flags []string
	for _, n := range numbers {
		if n == "" {
			continue
		}
		if seen[n] {
			flags = append(flags, fmt.Sprintf("duplicate_horse_number:%s", n))
		}
		seen[n] = true
	}
	return flags
}

// checkPositions verifies numeric finishing positions form a set of
// distinct integers starting at 1 (withdrawn/DNF rows excluded).
func checkPositions(entries []FinishEntry) []string {
	var flags []string
	seen := map[int]bool{}
	max := 0
	for _, e := range entries {
		n, ok := e.NumericPosition()
		if !ok {
			continue
		}
		if seen[n] {
			flags = append(flags, fmt.Sprintf("duplicate_position:%d", n))
		}
		seen[n] = true
		if n > max {
			max = n
		}
	}
	for i := 1; i <= max; i++ {
		if !seen[i] {
			flags = append(flags, fmt.Sprintf("missing_position:%d", i))
		}
	}
	return flags
}
