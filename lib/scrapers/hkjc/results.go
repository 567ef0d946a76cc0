package hkjc

import (
	"regexp"
	"strings"
	"time"

	"hkracing-backend/lib/htmlutil"
	"hkracing-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

var positionPattern = regexp.MustCompile(`^(\d{1,2}|WV|DNF)$`)

var resultColumns = ColumnMap{
	Shape: RowShape{
		MinCells:  10,
		FirstCell: positionPattern,
	},
	Columns: []Column{
		{Field: "position", Header: "名次", Offset: 0},
		{Field: "horse_number", Header: "馬號", Offset: 1},
		{Field: "horse_name", Header: "馬名", Offset: 2},
		{Field: "jockey", Header: "騎師", Offset: 3},
		{Field: "trainer", Header: "練馬師", Offset: 4},
		{Field: "actual_weight", Header: "實際負磅", Offset: 5},
		{Field: "declared_weight", Header: "排位體重", Offset: 6},
		{Field: "draw", Header: "檔位", Offset: 7},
		{Field: "margin", Header: "頭馬距離", Offset: 8},
		{Field: "running_position", Header: "沿途走位", Offset: 9},
		{Field: "finish_time", Header: "完成時間", Offset: 10},
		{Field: "win_odds", Header: "獨贏賠率", Offset: 11},
	},
}

// ParseFinishes extracts the finishing order from a located results
// table.
func ParseFinishes(t Table) []FinishEntry {
	var entries []FinishEntry
	for _, rec := range resultColumns.Parse(t) {
		name, code := textutil.SplitHorseName(rec["horse_name"])
		finishTime := rec["finish_time"]
		if !textutil.IsFinishTime(finishTime) {
			finishTime = ""
		}
		entries = append(entries, FinishEntry{
			Position:        rec["position"],
			HorseNumber:     rec["horse_number"],
			HorseName:       name,
			HorseCode:       code,
			Jockey:          textutil.NormalizeName(rec["jockey"]),
			Trainer:         textutil.NormalizeName(rec["trainer"]),
			ActualWeight:    numericCell(rec["actual_weight"]),
			DeclaredWeight:  numericCell(rec["declared_weight"]),
			Draw:            numericCell(rec["draw"]),
			Margin:          rec["margin"],
			RunningPosition: rec["running_position"],
			FinishTime:      finishTime,
			WinOdds:         rec["win_odds"],
		})
	}
	return entries
}

// incident phrasing that also mentions distances/classes; metadata
// candidates containing any of these are race reports, not headers
var incidentPhrases = []string{
	"發生碰撞", "被警告", "須抽取樣本", "接受獸醫檢查", "賽後",
}

var goingRegex = regexp.MustCompile(`場地狀況\s*[:：]?\s*(\S+)`)
var prizeRegex = regexp.MustCompile(`獎金\s*[:：]?\s*(\$?[\d,]+)`)

// RaceMeta is the race-level metadata scattered around the results
// table rather than inside it.
type RaceMeta struct {
	ClassDistanceText string
	RaceClass         int
	Distance          int
	Going             string
	PrizeMoney        string
}

// ParseRaceMeta pulls class, distance, going and prize money out of a
// results page. the metadata has no stable container, so this scans
// short text nodes for a "…班 …米" shape the way the rest of the page
// family is matched, by content.
func ParseRaceMeta(doc *goquery.Document) RaceMeta {
	meta := RaceMeta{}

	doc.Find("td, div, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := htmlutil.CleanText(sel.Text())
		if text == "" || len([]rune(text)) > 50 {
			return true
		}
		if !strings.Contains(text, "米") {
			return true
		}
		for _, phrase := range incidentPhrases {
			if strings.Contains(text, phrase) {
				return true
			}
		}
		if textutil.ParseDistance(text) == 0 {
			return true
		}
		meta.ClassDistanceText = text
		meta.RaceClass = textutil.ParseRaceClass(text)
		meta.Distance = textutil.ParseDistance(text)
		return false
	})

	pageText := htmlutil.FlattenText(doc.Selection)
	if m := goingRegex.FindStringSubmatch(pageText); m != nil {
		meta.Going = m[1]
	}
	if m := prizeRegex.FindStringSubmatch(pageText); m != nil {
		meta.PrizeMoney = m[1]
	}
	return meta
}

// AssembleResults wraps the finishing order and race metadata into the
// results record, flagging position-permutation violations instead of
// failing.
func AssembleResults(key RaceKey, meta RaceMeta, finishes []FinishEntry, sourceURL string, scrapedAt time.Time) ResultRecord {
	status := StatusSuccess
	if len(finishes) == 0 {
		status = StatusFailed
	}

	flags := checkPositions(finishes)

	numbers := make([]string, len(finishes))
	for i, e := range finishes {
		numbers[i] = e.HorseNumber
	}
	flags = append(flags, checkUniqueHorseNumbers(numbers)...)

	if len(flags) > 0 && status == StatusSuccess {
		status = StatusPartial
	}

	return ResultRecord{
		Race:              key.Info(sourceURL, scrapedAt, status),
		ClassDistanceText: meta.ClassDistanceText,
		RaceClass:         meta.RaceClass,
		Distance:          meta.Distance,
		Going:             meta.Going,
		PrizeMoney:        meta.PrizeMoney,
		Finishes:          finishes,
		Quality:           flags,
	}
}
