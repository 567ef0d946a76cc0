package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// ParseOdds parses a betting odds cell. valid odds are strictly inside
// (0, 1000); anything else (scratched markers, dashes, empty cells)
// reports ok=false and the field is dropped, never clamped.
func ParseOdds(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	if v <= 0 || v >= 1000 {
		return 0, false
	}
	return v, true
}

// ParseInt is a permissive integer parse for cells like weights and
// gate numbers that occasionally carry stray punctuation.
func ParseInt(cell string) (int, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	v, err := strconv.Atoi(cell)
	if err != nil {
		return 0, false
	}
	return v, true
}

var finishTimeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}\.\d{2}$`)

// IsFinishTime reports whether a cell looks like an M:SS.ss race time.
func IsFinishTime(cell string) bool {
	return finishTimeRegex.MatchString(strings.TrimSpace(cell))
}

var timeSlotRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// IsTimeSlot reports whether a cell is an HH:MM odds-snapshot label.
func IsTimeSlot(cell string) bool {
	return timeSlotRegex.MatchString(strings.TrimSpace(cell))
}

var chineseClassDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
}

var classRegex = regexp.MustCompile(`第([一二三四五])班`)

// ParseRaceClass maps a 第X班 marker in race metadata text to its
// numeric class, 0 when absent.
func ParseRaceClass(text string) int {
	m := classRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return chineseClassDigits[[]rune(m[1])[0]]
}

var distanceRegex = regexp.MustCompile(`(\d{3,4})米`)

// ParseDistance extracts a course distance in metres from race metadata
// text, 0 when absent.
func ParseDistance(text string) int {
	m := distanceRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, _ := strconv.Atoi(m[1])
	return v
}

var horseNameRegex = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)$`)

// SplitHorseName separates the brand code suffix from a horse name
// cell, e.g. "爆冷 (E100)" -> ("爆冷", "E100").
func SplitHorseName(cell string) (name string, code string) {
	cell = strings.TrimSpace(cell)
	m := horseNameRegex.FindStringSubmatch(cell)
	if m == nil {
		return cell, ""
	}
	return strings.TrimSpace(m[1]), m[2]
}
