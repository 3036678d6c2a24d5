// Package haplogroup contains code for interpreting uniparental haplogroup
// calls as they appear in ancient-DNA annotation tables.  A call is a freeform
// nomenclature string such as "H1a1", "R1b1a2a1a2b1" or "U5b2b", in which the
// leading letter names the basal (root) lineage and the remainder encodes
// progressively finer subclades.  Annotation tables mix curated calls with a
// handful of placeholder values ("..", "n/a", ...) for samples whose lineage
// could not be determined; those placeholders must never be counted as
// lineages.
//
// Only two call shapes take part in frequency analysis: a bare basal letter
// ("H"), or a basal letter followed by a digit naming the primary subclade
// ("H1a1" counts as basal H, subclade H1).  Anything else ("HV0a", "..") is
// uncountable and skipped by the aggregation stage.
package haplogroup

import "strings"

// placeholderCalls are the values used by annotation tables for samples
// without a usable haplogroup assignment.
var placeholderCalls = map[string]bool{
	"":            true,
	"..":          true,
	"n/a":         true,
	"N/A":         true,
	"Neanderthal": true,
}

// Invalid reports whether call is a placeholder rather than a real haplogroup
// assignment.  Surrounding whitespace is ignored.
func Invalid(call string) bool {
	return placeholderCalls[strings.TrimSpace(call)]
}

// Parse splits call into its basal haplogroup (first letter, upper-cased) and
// primary subclade (first two characters when the second is a digit, e.g.
// "h1a" -> basal "H", subclade "H1").  subclade is empty for a bare basal
// call.  ok is false for placeholders, for calls not led by a letter, and for
// multi-character calls whose second character is not a digit; such calls are
// uncountable.
func Parse(call string) (basal, subclade string, ok bool) {
	c := strings.TrimSpace(call)
	if placeholderCalls[c] {
		return "", "", false
	}
	lead := c[0]
	if lead >= 'a' && lead <= 'z' {
		lead -= 'a' - 'A'
	}
	if lead < 'A' || lead > 'Z' {
		return "", "", false
	}
	if len(c) == 1 {
		return string(lead), "", true
	}
	if d := c[1]; d >= '0' && d <= '9' {
		return string(lead), string(lead) + string(d), true
	}
	return "", "", false
}

// Basal returns the basal haplogroup of a countable call.
func Basal(call string) (string, bool) {
	basal, _, ok := Parse(call)
	return basal, ok
}

// Subclade returns the primary subclade of a countable call, with ok false
// when the call is basal-only or uncountable.
func Subclade(call string) (string, bool) {
	_, subclade, ok := Parse(call)
	return subclade, ok && subclade != ""
}
