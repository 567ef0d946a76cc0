package hkjc

import (
	"regexp"
	"strconv"
	"time"

	"hkracing-backend/lib/textutil"
)

// fallback snapshot labels for pages that never render a time header
// row: morning line, pre-off and off.
var defaultTimeSlots = []string{"07:30", "15:59", "16:02"}

var horseNumberPattern = regexp.MustCompile(`^\d{1,2}$`)

var oddsColumns = ColumnMap{
	Shape: RowShape{
		MinCells:  8,
		FirstCell: horseNumberPattern,
	},
	Columns: []Column{
		{Field: "horse_number", Header: "馬號", Offset: 0},
		{Field: "horse_name", Header: "馬名", Offset: 2},
		{Field: "gate", Header: "檔位", Offset: 3},
		{Field: "weight", Header: "負磅", Offset: 4},
		{Field: "jockey", Header: "騎師", Offset: 5},
		{Field: "trainer", Header: "練馬師", Offset: 6},
	},
}

// firstOddsOffset is where odds columns start on header-less layouts,
// right after the trainer column.
const firstOddsOffset = 7

// ParseWinOdds extracts every horse's win-odds trend from a located
// odds table. returned time slots are the HH:MM labels the trend
// columns map to.
func ParseWinOdds(t Table) ([]HorseOdds, []string) {
	headerIdx := oddsColumns.headerRow(t.Rows)

	slots, slotIndices := findTimeSlots(t.Rows, headerIdx)

	var header []string
	start := 0
	if headerIdx >= 0 {
		header = t.Rows[headerIdx]
		start = headerIdx + 1
		// a separate timestamp row below the header is not a data row
		if len(slotIndices) == 0 && rowHasTimeSlots(t.Rows, headerIdx+1) {
			start = headerIdx + 2
		}
	}
	indices := oddsColumns.resolve(header)

	var horses []HorseOdds
	for _, row := range t.Rows[start:] {
		if !oddsColumns.Shape.Match(row) {
			continue
		}
		if n, _ := strconv.Atoi(row[0]); n < 1 || n > 20 {
			continue
		}

		horse := HorseOdds{}
		pick := func(field string) string {
			idx, ok := indices[field]
			if !ok || idx < 0 || idx >= len(row) {
				return ""
			}
			return row[idx]
		}
		horse.HorseNumber = pick("horse_number")
		horse.HorseName = pick("horse_name")
		horse.Gate = numericCell(pick("gate"))
		horse.Weight = numericCell(pick("weight"))
		horse.Jockey = textutil.NormalizeName(pick("jockey"))
		horse.Trainer = textutil.NormalizeName(pick("trainer"))

		var trend []OddsSnapshot
		var place string
		if len(slotIndices) > 0 {
			trend, place = oddsByColumn(row, slots, slotIndices)
		} else {
			trend, place = oddsByPosition(row, slots)
		}

		// a horse with no measurable odds at all is dropped rather
		// than emitted empty
		if len(trend) == 0 && place == "" {
			continue
		}
		horse.WinOddsTrend = trend
		horse.PlaceOdds = place
		horses = append(horses, horse)
	}
	return horses, slots
}

// findTimeSlots looks for HH:MM labels first in the header row itself,
// then in the row directly below it; absent both, the default label
// set applies. slotIndices is only populated for the in-header case,
// where labels pin exact column offsets.
func findTimeSlots(rows [][]string, headerIdx int) ([]string, []int) {
	if headerIdx >= 0 {
		var slots []string
		var indices []int
		for i, cell := range rows[headerIdx] {
			if textutil.IsTimeSlot(cell) {
				slots = append(slots, cell)
				indices = append(indices, i)
			}
		}
		if len(slots) > 0 {
			return slots, indices
		}

		if rowHasTimeSlots(rows, headerIdx+1) {
			for _, cell := range rows[headerIdx+1] {
				if textutil.IsTimeSlot(cell) {
					slots = append(slots, cell)
				}
			}
			return slots, nil
		}
	}
	return defaultTimeSlots, nil
}

func rowHasTimeSlots(rows [][]string, idx int) bool {
	if idx < 0 || idx >= len(rows) {
		return false
	}
	for _, cell := range rows[idx] {
		if textutil.IsTimeSlot(cell) {
			return true
		}
	}
	return false
}

// oddsByColumn maps trend values through the slot columns pinned by
// the header, and takes the first parseable odds cell after the last
// slot as the place/final column.
func oddsByColumn(row []string, slots []string, slotIndices []int) ([]OddsSnapshot, string) {
	var trend []OddsSnapshot
	for i, idx := range slotIndices {
		if idx >= len(row) {
			break
		}
		if _, ok := textutil.ParseOdds(row[idx]); ok {
			trend = append(trend, OddsSnapshot{Time: slots[i], Odds: row[idx]})
		}
	}

	place := ""
	for i := slotIndices[len(slotIndices)-1] + 1; i < len(row); i++ {
		if _, ok := textutil.ParseOdds(row[i]); ok {
			place = row[i]
			break
		}
	}
	return trend, place
}

// oddsByPosition collects every parseable odds cell after the fixed
// prefix columns and maps them to slot labels positionally. when there
// are more values than labels the surplus last value is the place
// odds.
func oddsByPosition(row []string, slots []string) ([]OddsSnapshot, string) {
	var values []string
	for i := firstOddsOffset; i < len(row); i++ {
		if _, ok := textutil.ParseOdds(row[i]); ok {
			values = append(values, row[i])
		}
	}
	if len(values) == 0 {
		return nil, ""
	}

	place := ""
	if len(values) > len(slots) {
		place = values[len(values)-1]
		values = values[:len(values)-1]
	}

	var trend []OddsSnapshot
	for i, v := range values {
		if i >= len(slots) {
			break
		}
		trend = append(trend, OddsSnapshot{Time: slots[i], Odds: v})
	}
	return trend, place
}

// AssembleOdds wraps parsed horses into the odds record for a race,
// running record-level invariant checks. violations surface as quality
// flags rather than errors.
func AssembleOdds(key RaceKey, horses []HorseOdds, slots []string, sourceURL string, scrapedAt time.Time) OddsRecord {
	status := StatusSuccess
	if len(horses) == 0 {
		status = StatusFailed
	}

	numbers := make([]string, len(horses))
	partial := false
	for i, h := range horses {
		numbers[i] = h.HorseNumber
		if len(h.WinOddsTrend) < len(slots) {
			partial = true
		}
	}
	flags := checkUniqueHorseNumbers(numbers)
	if partial && status == StatusSuccess {
		status = StatusPartial
	}

	return OddsRecord{
		Race:      key.Info(sourceURL, scrapedAt, status),
		TimeSlots: slots,
		Horses:    horses,
		Quality:   flags,
	}
}
