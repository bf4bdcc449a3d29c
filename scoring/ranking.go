package scoring

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Entry is the minimal projection of a registration needed for ranking.
type Entry struct {
	PlayerID int    `json:"player_id"`
	Alias    string `json:"alias"`
	Score    int    `json:"score"`
}

// RankedEntry is an Entry with its positional rank assigned (1-based).
type RankedEntry struct {
	Entry
	Rank int `json:"rank"`
}

// Rank orders entries by score descending, breaking ties by alias ascending
// with a locale-aware compare. Ranks are sequential positions after the sort;
// equal scores still get distinct ranks determined by the tie-break.
//
// The function is pure and deterministic: the same input always produces the
// same ordering, which keeps the admin live table, the results editor and the
// public scoreboard in agreement.
func Rank(entries []Entry) []RankedEntry {
	collator := collate.New(language.Spanish, collate.IgnoreCase)

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return collator.CompareString(sorted[i].Alias, sorted[j].Alias) < 0
	})

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{Entry: e, Rank: i + 1}
	}
	return ranked
}

// SortAlphabetical orders entries by alias only, for tournaments still open
// for registration where scores are not shown.
func SortAlphabetical(entries []Entry) []Entry {
	collator := collate.New(language.Spanish, collate.IgnoreCase)

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return collator.CompareString(sorted[i].Alias, sorted[j].Alias) < 0
	})
	return sorted
}
