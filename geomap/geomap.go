// Package geomap renders per-population haplogroup frequencies as an
// interactive HTML map. Every population becomes a marker at its mean
// sampling coordinates whose popup holds a two-ring doughnut chart: the inner
// ring shows basal haplogroup shares of the whole population, the outer ring
// subdivides each basal share into its subclades. All chart geometry is
// precomputed here; the page's period and marker-system controls only show or
// hide prebuilt markers.
package geomap

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"github.com/popgenlab/haplomap/haplofreq"
	"github.com/popgenlab/haplomap/ring"
)

// Marker is one population marker, fully precomputed for the page script.
// Labels, Inner, Outer, Display, Colors and Undetermined run in parallel:
// each index is one chart slot, basal slots immediately followed by their
// outer-ring slots. Inner and Outer hold percentages of the full circle, so
// within each dataset values are proportional to angle and the two rings stay
// edge-aligned without any client-side arithmetic.
type Marker struct {
	ID         string `json:"id"`
	System     string `json:"system"`
	Population string `json:"population"`
	Country    string `json:"country"`
	Age        string `json:"age"`
	// YearCE is the signed calendar year used by the period filter, negative
	// for BCE. Undated populations carry null and only show under "All Ages".
	YearCE *int    `json:"yearCE"`
	N      int     `json:"n"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`

	Labels []string `json:"labels"`
	// Inner holds the basal share at basal slots and 0 at outer slots.
	Inner []float64 `json:"inner"`
	// Outer holds 0 at basal slots and the subclade share at outer slots.
	Outer []float64 `json:"outer"`
	// Display holds the subclade percentage relative to its basal parent,
	// null at basal and undetermined slots.
	Display []*float64 `json:"display"`
	Colors  []string   `json:"colors"`
	// Undetermined marks outer slots that cover samples with no designated
	// subclade; they are skipped by legends and slice labels.
	Undetermined []bool `json:"undetermined"`
}

// Build converts frequency tables into map markers, one per population, in
// table order. Marker construction fans out over parallelism jobs;
// parallelism <= 0 means one job per CPU. A population without usable
// coordinates or whose shares do not lay out into aligned rings is an error.
func Build(tables []*haplofreq.Table, parallelism int) ([]Marker, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	colors := Palette(allLabels(tables))

	type popRef struct {
		system string
		pop    *haplofreq.PopulationFreq
	}
	refs := []popRef{}
	for _, table := range tables {
		for i := range table.Pops {
			refs = append(refs, popRef{table.Marker.String(), &table.Pops[i]})
		}
	}

	markers := make([]Marker, len(refs))
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(refs)) / parallelism
		endIdx := ((jobIdx + 1) * len(refs)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			m, err := buildMarker(refs[i].system, refs[i].pop, colors)
			if err != nil {
				return err
			}
			markers[i] = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return markers, nil
}

func buildMarker(system string, pop *haplofreq.PopulationFreq, colors map[string]string) (Marker, error) {
	info := pop.Info
	if math.IsNaN(info.Lat) || math.IsNaN(info.Lon) {
		return Marker{}, errors.Errorf("population %q has no usable coordinates", info.Name)
	}
	inner, outer, err := ring.Layout(pop.BasalShares(), pop.SubcladeShares())
	if err != nil {
		return Marker{}, errors.Wrapf(err, "population %q", info.Name)
	}

	m := Marker{
		ID:         chartID(system, info.Name),
		System:     system,
		Population: info.Name,
		Country:    info.Country,
		Age:        info.Age,
		YearCE:     parseYearCE(info.Age),
		N:          info.N,
		Lat:        info.Lat,
		Lon:        info.Lon,
	}
	add := func(label string, innerPct, outerPct float64, display *float64, color string, undetermined bool) {
		m.Labels = append(m.Labels, label)
		m.Inner = append(m.Inner, innerPct)
		m.Outer = append(m.Outer, outerPct)
		m.Display = append(m.Display, display)
		m.Colors = append(m.Colors, color)
		m.Undetermined = append(m.Undetermined, undetermined)
	}

	next := 0
	for _, parent := range inner {
		add(parent.Label, parent.Span()/3.6, 0, nil, colors[parent.Label], false)
		for ; next < len(outer) && outer[next].Parent == parent.Label; next++ {
			child := outer[next]
			if child.Label == ring.UndeterminedLabel {
				add(child.Label, 0, child.Span()/3.6, nil, UndeterminedColor, true)
				continue
			}
			pct := child.Span() / parent.Span() * 100
			add(child.Label, 0, child.Span()/3.6, &pct, colors[child.Label], false)
		}
	}
	return m, nil
}

// allLabels collects every basal and subclade label across the tables so both
// marker systems share one color mapping.
func allLabels(tables []*haplofreq.Table) []string {
	labels := []string{}
	for _, table := range tables {
		for _, pop := range table.Pops {
			for _, r := range pop.Rows {
				labels = append(labels, r.Label())
			}
		}
	}
	return labels
}

// chartID derives a stable DOM id for a population's chart canvas.
func chartID(system, population string) string {
	return fmt.Sprintf("chart_%016x", farm.Hash64([]byte(system+"|"+population)))
}

// parseYearCE inverts calendar-era age labels such as "550 BCE" or "950 CE".
// Anything else, notably "Unknown", yields nil.
func parseYearCE(age string) *int {
	var neg bool
	var num string
	switch {
	case strings.HasSuffix(age, " BCE"):
		neg, num = true, strings.TrimSuffix(age, " BCE")
	case strings.HasSuffix(age, " CE"):
		num = strings.TrimSuffix(age, " CE")
	default:
		return nil
	}
	year, err := strconv.Atoi(num)
	if err != nil {
		return nil
	}
	if neg {
		year = -year
	}
	return &year
}
