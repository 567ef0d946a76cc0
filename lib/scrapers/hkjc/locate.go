package hkjc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"hkracing-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ErrTableNotFound means the page loaded but holds no table matching
// the signature. callers treat it as "no relevant data", not a parse
// failure.
var ErrTableNotFound = errors.New("no table matches signature")

// Signature is a set of substrings that must all appear in a table's
// flattened text for the table to match.
type Signature []string

// content signatures for the page families this package parses
var (
	SigOddsTrend   = Signature{"獨贏賠率走勢"}
	SigOddsGeneric = Signature{"馬號", "賠率"}
	SigResults     = Signature{"名次", "馬號", "騎師"}
	SigPayouts     = Signature{"派彩"}
	SigIncidents   = Signature{"競賽事件報告"}
)

func (s Signature) matches(text string) bool {
	for _, needle := range s {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	return strings.Join(s, "+")
}

// Table is one HTML table flattened into trimmed cell text. Index is
// its position among all tables in document order.
type Table struct {
	Index int
	Rows  [][]string
}

// Locate returns the first table in document order matching any of the
// given signatures. the first-match tie-break mirrors the observed page
// layout rather than any contract from the site, so every extra
// candidate is logged to make silent layout drift visible.
func Locate(doc *goquery.Document, sigs ...Signature) (Table, error) {
	var found []Table
	var matchedSig Signature

	doc.Find("table").Each(func(i int, sel *goquery.Selection) {
		text := htmlutil.FlattenText(sel)
		for _, sig := range sigs {
			if sig.matches(text) {
				if len(found) == 0 {
					matchedSig = sig
				}
				found = append(found, Table{Index: i, Rows: htmlutil.TableCells(sel)})
				return
			}
		}
	})

	if len(found) == 0 {
		return Table{}, fmt.Errorf("%w: %v", ErrTableNotFound, sigs)
	}
	if len(found) > 1 {
		indices := make([]int, len(found))
		for i, t := range found {
			indices[i] = t.Index
		}
		slog.Warn("multiple tables match signature, using first",
			"signature", matchedSig.String(),
			"candidates", fmt.Sprint(indices))
	}
	return found[0], nil
}
