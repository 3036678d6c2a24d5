// Package ring computes the angular geometry of dual-ring (nested pie)
// charts.  The inner ring holds one slice per basal haplogroup, spanning
// [0,360) in proportion to the basal frequencies.  The outer ring subdivides
// every inner slice among the subclades observed under that basal lineage, so
// that the two rings always align edge-to-edge: a basal slice with no
// subclade data is covered by a single "undetermined subtype" slice rather
// than a gap.
package ring

import (
	"fmt"
	"math"
	"sort"
)

// Tolerance bounds how far a basal share vector may deviate from summing to
// 1.0 before the layout is rejected.
const Tolerance = 1e-6

// UndeterminedLabel is the label of the degenerate outer slice emitted for a
// basal lineage without subclade data.
const UndeterminedLabel = "undetermined subtype"

// Share is one labeled portion of a ring, expressed as a fraction.  Basal
// shares are fractions of the whole population; subclade shares are fractions
// of their parent's count.
type Share struct {
	Label string
	Frac  float64
}

// Slice is one laid-out ring segment.  Angles are degrees; a slice covers
// [Start,End).  Parent is empty for inner-ring slices and names the enclosing
// basal slice for outer-ring slices.
type Slice struct {
	Label  string
	Parent string
	Start  float64
	End    float64
}

// Span returns the angular width of the slice in degrees.
func (s Slice) Span() float64 { return s.End - s.Start }

// ConsistencyError reports share vectors that cannot form a valid layout.
type ConsistencyError struct {
	Scope string  // "basal ring" or a parent label
	Sum   float64 // observed share sum
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ring layout: %s shares sum to %.9g (tolerance %g)", e.Scope, e.Sum, Tolerance)
}

// orderShares sorts shares by descending fraction, breaking ties by ascending
// label so that layouts are deterministic.
func orderShares(shares []Share) []Share {
	ordered := make([]Share, len(shares))
	copy(ordered, shares)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Frac != ordered[j].Frac {
			return ordered[i].Frac > ordered[j].Frac
		}
		return ordered[i].Label < ordered[j].Label
	})
	return ordered
}

// Layout computes the inner and outer ring geometry for one population and
// marker system.  basal holds the basal-haplogroup shares, which must sum to
// 1.0 within Tolerance.  children maps a basal label to the subclade shares
// observed under it; each child list is scaled to fill its parent's span
// proportionally.  Angular boundaries are carried forward as one cumulative
// fraction per ring, so per-slice rounding cannot accumulate into a gap at
// the 360/0 seam; the final boundary of each ring, and of each parent's child
// run, is snapped to its enclosing end.
//
// Shares with non-positive or non-finite fractions, child lists whose sum
// exceeds 1.0 beyond Tolerance, and children of unknown parents are all
// rejected with a *ConsistencyError rather than silently repaired.
func Layout(basal []Share, children map[string][]Share) (inner, outer []Slice, err error) {
	if len(basal) == 0 {
		return nil, nil, nil
	}
	sum := 0.0
	for _, b := range basal {
		if !(b.Frac > 0) || math.IsInf(b.Frac, 0) {
			return nil, nil, &ConsistencyError{Scope: fmt.Sprintf("basal %q", b.Label), Sum: b.Frac}
		}
		sum += b.Frac
	}
	if math.Abs(sum-1) > Tolerance {
		return nil, nil, &ConsistencyError{Scope: "basal ring", Sum: sum}
	}
	known := make(map[string]bool, len(basal))
	for _, b := range basal {
		known[b.Label] = true
	}
	parents := make([]string, 0, len(children))
	for p := range children {
		parents = append(parents, p)
	}
	sort.Strings(parents)
	for _, p := range parents {
		if !known[p] {
			return nil, nil, &ConsistencyError{Scope: fmt.Sprintf("subclades of unknown parent %q", p), Sum: 0}
		}
	}

	ordered := orderShares(basal)
	inner = make([]Slice, 0, len(ordered))
	cum := 0.0
	for _, b := range ordered {
		start := 360 * cum
		cum += b.Frac
		inner = append(inner, Slice{Label: b.Label, Start: start, End: 360 * cum})
	}
	inner[len(inner)-1].End = 360

	for _, parent := range inner {
		kids := children[parent.Label]
		if len(kids) == 0 {
			outer = append(outer, Slice{
				Label:  UndeterminedLabel,
				Parent: parent.Label,
				Start:  parent.Start,
				End:    parent.End,
			})
			continue
		}
		kidSum := 0.0
		for _, k := range kids {
			if !(k.Frac > 0) || math.IsInf(k.Frac, 0) {
				return nil, nil, &ConsistencyError{Scope: fmt.Sprintf("subclade %q of %q", k.Label, parent.Label), Sum: k.Frac}
			}
			kidSum += k.Frac
		}
		// kidSum may fall short of 1.0 when some of the parent's samples
		// carry no subclade designation; the known subclades then share the
		// whole span proportionally.  A sum beyond 1.0 means the child counts
		// exceed the parent's and the table is corrupt.
		if kidSum > 1+Tolerance {
			return nil, nil, &ConsistencyError{Scope: fmt.Sprintf("subclades of %q", parent.Label), Sum: kidSum}
		}
		span := parent.Span()
		cumKid := 0.0
		for _, k := range orderShares(kids) {
			start := parent.Start + span*(cumKid/kidSum)
			cumKid += k.Frac
			outer = append(outer, Slice{
				Label:  k.Label,
				Parent: parent.Label,
				Start:  start,
				End:    parent.Start + span*(cumKid/kidSum),
			})
		}
		outer[len(outer)-1].End = parent.End
	}
	return inner, outer, nil
}
