// Package annotation contains code for reading, filtering, and rewriting
// ancient-DNA annotation tables such as the AADR annotation sheet.  The raw
// table is tab-separated with one row per sample and a wide, versioned set of
// columns; only a handful of them matter here and they are located by header
// name (configurable through a TOML mapping, see Columns).  Filtered tables
// are rewritten with a fixed canonical header so downstream stages can load
// them without any column mapping.
package annotation

import (
	"fmt"
	"strings"
)

// Record is one sample row of an annotation table.  Numeric fields are kept
// as raw strings: annotation tables use ".." and free text for missing
// values, and the aggregation stage decides how to treat those.
type Record struct {
	// SampleID is the unique sample identifier ("Genetic ID").
	SampleID string
	// GroupID is the publication's population label, unused in aggregation
	// but carried through for traceability.
	GroupID string
	// PoliticalEntity is the modern country of the sampling site.
	PoliticalEntity string
	// DateMeanBP is the mean calibrated date in years before 1950 CE.
	DateMeanBP string
	// Lat and Lon are the sampling-site coordinates in decimal degrees.
	Lat string
	Lon string
	// YHaplogroup and MtHaplogroup are the per-marker-system lineage calls.
	YHaplogroup  string
	MtHaplogroup string
	// Assessment is the curation quality flag; only "PASS" rows are analyzed.
	Assessment string
}

// QualityPass is the Assessment value required of analyzable samples.
const QualityPass = "PASS"

// Filter returns the records whose Assessment is PASS and whose SampleID is
// in allowed, preserving input order.  An empty result is valid.
func Filter(recs []Record, allowed map[string]bool) []Record {
	var kept []Record
	for _, r := range recs {
		if r.Assessment == QualityPass && allowed[r.SampleID] {
			kept = append(kept, r)
		}
	}
	return kept
}

// FormatError describes an annotation table whose header lacks required
// columns.
type FormatError struct {
	Path    string
	Missing []string // required column names absent from the header
	Hints   []string // closest actual header per missing column ("" if none)
}

func (e *FormatError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		if e.Hints[i] != "" {
			parts[i] = fmt.Sprintf("%q (closest header: %q)", m, e.Hints[i])
		} else {
			parts[i] = fmt.Sprintf("%q", m)
		}
	}
	return fmt.Sprintf("%s: missing required column(s): %s", e.Path, strings.Join(parts, ", "))
}
