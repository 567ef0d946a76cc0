package hkjc

import (
	"strings"
	"time"
	"unicode"
)

// the standard betting pools, by their page labels
var standardPools = []string{
	"獨贏", "位置Q", "位置", "連贏", "二重彩", "三重彩", "單T", "四連環", "四重彩",
}

// exotic multi-leg pools appear with leg prefixes, e.g. 孖寶, 新孖寶,
// 第一口孖T
var exoticPoolMarkers = []string{"孖寶", "孖T", "口孖"}

// payout table header labels, skipped during row walking
var payoutHeaderCells = []string{"彩池", "勝出組合", "派彩 (HK$)", "派彩"}

func isPoolLabel(cell string) bool {
	if cell == "" {
		return false
	}
	for _, p := range standardPools {
		if cell == p {
			return true
		}
	}
	for _, marker := range exoticPoolMarkers {
		if strings.Contains(cell, marker) {
			return true
		}
	}
	return false
}

func isPayoutHeaderRow(row []string) bool {
	for _, cell := range row {
		for _, h := range payoutHeaderCells {
			if cell == h {
				return true
			}
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, c := range s {
		if unicode.IsDigit(c) {
			return true
		}
	}
	return false
}

// ParsePayouts walks a located payout table. the table interleaves
// pool-label rows with label-less continuation rows (位置 and 位置Q pay
// several combinations), so the current pool is carried across rows.
func ParsePayouts(t Table) []Pool {
	var pools []Pool
	byName := map[string]int{}

	add := func(pool, combination, payout string) {
		if pool == "" || combination == "" || payout == "" {
			return
		}
		idx, ok := byName[pool]
		if !ok {
			pools = append(pools, Pool{Name: pool})
			idx = len(pools) - 1
			byName[pool] = idx
		}
		for _, e := range pools[idx].Entries {
			if e.Combination == combination && e.Payout == payout {
				return
			}
		}
		pools[idx].Entries = append(pools[idx].Entries, PayoutEntry{
			Combination: combination,
			Payout:      payout,
		})
	}

	current := ""
	for _, row := range t.Rows {
		if isPayoutHeaderRow(row) {
			continue
		}

		switch {
		case len(row) >= 3:
			first, second, third := row[0], row[1], row[2]
			if isPoolLabel(first) {
				current = first
				add(current, second, third)
			} else if current != "" && first == "" {
				add(current, second, third)
			}
		case len(row) == 2 && current != "":
			// two-cell continuation rows carry combination + amount
			if hasDigit(row[0]) && hasDigit(row[1]) {
				add(current, row[0], row[1])
			}
		}
	}
	return pools
}

// AssemblePayouts wraps parsed pools into the payout record.
func AssemblePayouts(key RaceKey, pools []Pool, sourceURL string, scrapedAt time.Time) PayoutRecord {
	status := StatusSuccess
	if len(pools) == 0 {
		status = StatusFailed
	}

	var flags []string
	for _, p := range pools {
		if len(p.Entries) == 0 {
			flags = append(flags, "empty_pool:"+p.Name)
		}
	}
	if len(flags) > 0 && status == StatusSuccess {
		status = StatusPartial
	}

	return PayoutRecord{
		Race:    key.Info(sourceURL, scrapedAt, status),
		Pools:   pools,
		Quality: flags,
	}
}
