// Package haplofreq aggregates filtered annotation records into
// per-population haplogroup frequency tables.
//
// A population is the set of records sharing a sampling country and an age
// bin, e.g. "Hungary 2000-3000 BP". Within each population the package counts
// basal haplogroups (single letters such as "H") and their two-character
// subclades (such as "H1"), and converts the counts into fractions: basal
// fractions are relative to the number of analyzable samples in the
// population, subclade fractions are relative to the count of their basal
// parent. The resulting tables feed the ring layout and the map and report
// renderers.
package haplofreq

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/popgenlab/haplomap/encoding/annotation"
	"github.com/popgenlab/haplomap/haplogroup"
	"github.com/popgenlab/haplomap/ring"
	"gonum.org/v1/gonum/stat"
)

// ErrNoRecords reports that aggregation found no analyzable record for the
// requested marker system. Callers typically treat it as a warning and emit an
// empty artifact rather than abort.
var ErrNoRecords = errors.New("no analyzable records")

// Opts configures the aggregation.
type Opts struct {
	// BinYears is the width of the age bins, in years before present.
	BinYears int
	// MinPopSize drops populations with fewer analyzable samples than this.
	MinPopSize int
}

// DefaultOpts mirrors the defaults of the haplo-freq command.
var DefaultOpts = Opts{
	BinYears:   1000,
	MinPopSize: 1,
}

// Row is one haplogroup frequency within a population. Basal rows leave
// Subclade empty and express Freq relative to the population's analyzable
// sample count. Subclade rows carry both labels and express Freq relative to
// the count of their basal parent.
type Row struct {
	Basal    string
	Subclade string
	Count    int
	Freq     float64
}

// Label returns the haplogroup the row counts.
func (r Row) Label() string {
	if r.Subclade != "" {
		return r.Subclade
	}
	return r.Basal
}

// PopulationInfo describes one population independently of its frequencies.
type PopulationInfo struct {
	// Name is the synthesized population label, e.g. "Hungary 2000-3000 BP".
	Name    string
	Country string
	AgeBin  string
	// Age is the calendar-era label of the mean sample date, e.g. "750 BCE",
	// or "Unknown" for undated populations.
	Age string
	// Lat and Lon are the mean sampling coordinates, NaN when no record in
	// the population carries a usable coordinate.
	Lat float64
	Lon float64
	// N is the number of analyzable samples, i.e. records whose haplogroup
	// call parsed.
	N int
}

// PopulationFreq is the frequency table of a single population. Rows holds
// basal rows in display order (descending frequency, ties alphabetical), each
// immediately followed by its subclade rows in the same order.
type PopulationFreq struct {
	Info PopulationInfo
	Rows []Row
}

// BasalShares returns the basal rows as ring shares, in display order.
func (p *PopulationFreq) BasalShares() []ring.Share {
	var shares []ring.Share
	for _, r := range p.Rows {
		if r.Subclade == "" {
			shares = append(shares, ring.Share{Label: r.Basal, Frac: r.Freq})
		}
	}
	return shares
}

// SubcladeShares returns the subclade rows as ring shares keyed by their
// basal parent.
func (p *PopulationFreq) SubcladeShares() map[string][]ring.Share {
	m := map[string][]ring.Share{}
	for _, r := range p.Rows {
		if r.Subclade != "" {
			m[r.Basal] = append(m[r.Basal], ring.Share{Label: r.Subclade, Frac: r.Freq})
		}
	}
	return m
}

// Table is the full frequency table for one marker system, one entry per
// population, sorted by population name.
type Table struct {
	Marker haplogroup.Marker
	Pops   []PopulationFreq
}

// Pop returns the population with the given name, or nil.
func (t *Table) Pop(name string) *PopulationFreq {
	for i := range t.Pops {
		if t.Pops[i].Info.Name == name {
			return &t.Pops[i]
		}
	}
	return nil
}

// Stats summarizes an aggregation run.
type Stats struct {
	// Records is the number of records examined.
	Records int
	// MissingCall counts records whose haplogroup call was empty or a
	// placeholder such as "..".
	MissingCall int
	// InvalidCall counts records whose call was present but did not parse
	// into a basal letter.
	InvalidCall int
	// Undated counts analyzable records without a usable date.
	Undated int
	// NoCoordinates counts analyzable records missing a coordinate.
	NoCoordinates int
	// SmallPops counts populations dropped by Opts.MinPopSize.
	SmallPops int
	// Populations is the number of populations emitted.
	Populations int
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Records += o.Records
	s.MissingCall += o.MissingCall
	s.InvalidCall += o.InvalidCall
	s.Undated += o.Undated
	s.NoCoordinates += o.NoCoordinates
	s.SmallPops += o.SmallPops
	s.Populations += o.Populations
	return s
}

type groupAgg struct {
	country string
	bin     string
	n       int
	basal   map[string]int
	sub     map[string]map[string]int
	lats    []float64
	lons    []float64
	datesBP []float64
}

// Aggregate builds the per-population frequency table for one marker system.
// Records with a missing or unparseable haplogroup call are skipped and
// counted in Stats. When no population remains the returned error is
// ErrNoRecords and the Table is empty but usable.
func Aggregate(recs []annotation.Record, marker haplogroup.Marker, opts Opts) (*Table, Stats, error) {
	if marker != haplogroup.Y && marker != haplogroup.MtDNA {
		return nil, Stats{}, errors.Errorf("aggregate: invalid marker system %d", int(marker))
	}
	if opts.BinYears <= 0 {
		opts.BinYears = DefaultOpts.BinYears
	}
	if opts.MinPopSize < 1 {
		opts.MinPopSize = 1
	}

	groups := map[string]*groupAgg{}
	stats := Stats{Records: len(recs)}
	for _, rec := range recs {
		call := rec.MtHaplogroup
		if marker == haplogroup.Y {
			call = rec.YHaplogroup
		}
		if haplogroup.Invalid(call) {
			stats.MissingCall++
			continue
		}
		basal, subclade, ok := haplogroup.Parse(call)
		if !ok {
			stats.InvalidCall++
			continue
		}

		bin := UndatedBin
		dateBP, dated := parseNumber(rec.DateMeanBP)
		if dated {
			bin = BinLabel(dateBP, opts.BinYears)
		} else {
			stats.Undated++
		}
		name := populationName(rec.PoliticalEntity, bin)
		g := groups[name]
		if g == nil {
			g = &groupAgg{
				country: rec.PoliticalEntity,
				bin:     bin,
				basal:   map[string]int{},
				sub:     map[string]map[string]int{},
			}
			groups[name] = g
		}
		g.n++
		g.basal[basal]++
		if subclade != "" {
			if g.sub[basal] == nil {
				g.sub[basal] = map[string]int{}
			}
			g.sub[basal][subclade]++
		}
		if dated {
			g.datesBP = append(g.datesBP, dateBP)
		}
		lat, latOK := parseNumber(rec.Lat)
		lon, lonOK := parseNumber(rec.Lon)
		if latOK && lonOK {
			g.lats = append(g.lats, lat)
			g.lons = append(g.lons, lon)
		} else {
			stats.NoCoordinates++
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	table := &Table{Marker: marker}
	for _, name := range names {
		g := groups[name]
		if g.n < opts.MinPopSize {
			stats.SmallPops++
			continue
		}
		table.Pops = append(table.Pops, freqOf(name, g))
	}
	stats.Populations = len(table.Pops)
	if stats.Populations == 0 {
		return table, stats, ErrNoRecords
	}
	return table, stats, nil
}

// freqOf converts raw group counts into an ordered frequency table.
func freqOf(name string, g *groupAgg) PopulationFreq {
	basalRows := make([]Row, 0, len(g.basal))
	for basal, cnt := range g.basal {
		basalRows = append(basalRows, Row{
			Basal: basal,
			Count: cnt,
			Freq:  float64(cnt) / float64(g.n),
		})
	}
	orderRows(basalRows)

	rows := make([]Row, 0, len(basalRows))
	for _, br := range basalRows {
		rows = append(rows, br)
		subRows := make([]Row, 0, len(g.sub[br.Basal]))
		for subclade, cnt := range g.sub[br.Basal] {
			subRows = append(subRows, Row{
				Basal:    br.Basal,
				Subclade: subclade,
				Count:    cnt,
				Freq:     float64(cnt) / float64(br.Count),
			})
		}
		orderRows(subRows)
		rows = append(rows, subRows...)
	}

	return PopulationFreq{
		Info: PopulationInfo{
			Name:    name,
			Country: g.country,
			AgeBin:  g.bin,
			Age:     AgeLabel(meanOf(g.datesBP)),
			Lat:     meanOf(g.lats),
			Lon:     meanOf(g.lons),
			N:       g.n,
		},
		Rows: rows,
	}
}

// orderRows sorts by descending frequency, breaking ties alphabetically.
func orderRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Freq != rows[j].Freq {
			return rows[i].Freq > rows[j].Freq
		}
		return rows[i].Label() < rows[j].Label()
	})
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}
