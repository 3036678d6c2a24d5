package util

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// ClosestName returns the candidate with the smallest Levenshtein distance to
// name, and that distance. Comparison is case-insensitive. Returns ("", -1)
// when candidates is empty.
func ClosestName(name string, candidates []string) (string, int) {
	best := ""
	bestDist := -1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := matchr.Levenshtein(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist || (d == bestDist && c < best) {
			best = c
			bestDist = d
		}
	}
	return best, bestDist
}
