package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		panic(err)
	}
}

// force the timezone to Hong Kong because race dates are HKJC calendar
// dates; a server in another region would otherwise shift
// <time.Time>.Year()/Month()/Day() across a race-day boundary
func Now() time.Time {
	return time.Now().In(Location)
}

// ParseRaceDate parses a YYYY-MM-DD race date in Hong Kong time.
func ParseRaceDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Location)
}

// a race is extractable only once betting has settled, which means its
// date must be strictly before today in Hong Kong time. races running
// today still carry in-progress odds.
func IsSettledRaceDate(raceDate time.Time, now time.Time) bool {
	now = now.In(Location)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
	return raceDate.Before(startOfToday)
}
