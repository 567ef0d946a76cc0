package hkjc

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"hkracing-backend/lib/timezone"
)

// Venue is an HKJC racecourse code.
type Venue string

const (
	ShaTin      Venue = "ST"
	HappyValley Venue = "HV"
)

func (v Venue) Valid() bool {
	return v == ShaTin || v == HappyValley
}

// ChineseName returns the venue name as it appears in page content.
func (v Venue) ChineseName() string {
	switch v {
	case ShaTin:
		return "沙田"
	case HappyValley:
		return "跑馬地"
	}
	return ""
}

func ParseVenue(s string) (Venue, error) {
	v := Venue(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown venue %q, want ST or HV", s)
	}
	return v, nil
}

// RaceKey uniquely identifies one race session.
type RaceKey struct {
	Date   time.Time
	Venue  Venue
	Number int
}

func NewRaceKey(date string, venue Venue, number int) (RaceKey, error) {
	d, err := timezone.ParseRaceDate(date)
	if err != nil {
		return RaceKey{}, fmt.Errorf("bad race date: %w", err)
	}
	if !venue.Valid() {
		return RaceKey{}, fmt.Errorf("unknown venue %q", venue)
	}
	if number < 1 {
		return RaceKey{}, fmt.Errorf("race number must be positive, got %d", number)
	}
	return RaceKey{Date: d, Venue: venue, Number: number}, nil
}

// DateString is the YYYY-MM-DD form used by bet.hkjc.com and by the
// remote store's race_date field.
func (k RaceKey) DateString() string {
	return k.Date.Format("2006-01-02")
}

// SlashDateString is the YYYY/MM/DD form used by racing.hkjc.com.
func (k RaceKey) SlashDateString() string {
	return k.Date.Format("2006/01/02")
}

func (k RaceKey) String() string {
	return fmt.Sprintf("%s %s R%d", k.DateString(), k.Venue, k.Number)
}

// OddsURL is the bet.hkjc.com win-odds-trend page for this race.
func (k RaceKey) OddsURL() string {
	return fmt.Sprintf("https://bet.hkjc.com/ch/racing/pwin/%s/%s/%d", k.DateString(), k.Venue, k.Number)
}

// ResultsURL is the racing.hkjc.com results page for this race.
func (k RaceKey) ResultsURL() string {
	return fmt.Sprintf(
		"https://racing.hkjc.com/racing/information/Chinese/Racing/LocalResults.aspx?RaceDate=%s&Racecourse=%s&RaceNo=%d",
		k.SlashDateString(), k.Venue, k.Number,
	)
}

// BackupFileName is the local JSON backup naming convention:
// {record_type}_{YYYY}_{MM}_{DD}_{VENUE}_R{N}.json
func (k RaceKey) BackupFileName(recordType string) string {
	return fmt.Sprintf("%s_%s_%s_R%d.json", recordType, k.Date.Format("2006_01_02"), k.Venue, k.Number)
}

var oddsURLRegexes = []*regexp.Regexp{
	regexp.MustCompile(`^https://bet\.hkjc\.com/ch/racing/pwin/(\d{4}-\d{2}-\d{2})/(\w+)/(\d+)$`),
	regexp.MustCompile(`^https://bet\.hkjc\.com/ch/racing/wp/(\d{4}-\d{2}-\d{2})/(\w+)/(\d+)$`),
}

// ParseOddsURL extracts the race key from a bet.hkjc.com odds URL.
func ParseOddsURL(url string) (RaceKey, error) {
	for _, re := range oddsURLRegexes {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		venue, err := ParseVenue(m[2])
		if err != nil {
			return RaceKey{}, err
		}
		number, err := strconv.Atoi(m[3])
		if err != nil {
			return RaceKey{}, err
		}
		return NewRaceKey(m[1], venue, number)
	}
	return RaceKey{}, fmt.Errorf("not an HKJC odds URL: %s", url)
}
