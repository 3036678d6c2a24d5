package haplofreq

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/popgenlab/haplomap/haplogroup"
	"github.com/popgenlab/haplomap/util"
)

// tidyColumns is the canonical column order of tidy frequency tables, one
// name per tidyRow field.  ReadTable locates columns by these header names.
var tidyColumns = []string{
	"Population", "Country", "Age", "AgeBin", "Lat", "Lon",
	"Marker", "Basal", "Subclade", "Count", "Freq",
}

// tidyRow is the wire form of one tidy table row.  Numeric fields stay
// strings so that empty cells (unknown coordinates) survive a round trip.
type tidyRow struct {
	Population string
	Country    string
	Age        string
	AgeBin     string
	Lat        string
	Lon        string
	Marker     string
	Basal      string
	Subclade   string
	Count      string
	Freq       string
}

// WriteTSV writes the table in tidy form, one row per haplogroup per
// population, at path.  A path ending in .gz is written block-gzipped.  The
// table is staged under a temporary name and renamed into place, so a crash
// never leaves a partial table behind.
func WriteTSV(path string, t *Table) error {
	return writeTSVFile(path, func(w *tsv.Writer) error {
		for _, col := range tidyColumns {
			w.WriteString(col)
		}
		if err := w.EndLine(); err != nil {
			return err
		}
		for i := range t.Pops {
			pop := &t.Pops[i]
			for _, r := range pop.Rows {
				w.WriteString(pop.Info.Name)
				w.WriteString(pop.Info.Country)
				w.WriteString(pop.Info.Age)
				w.WriteString(pop.Info.AgeBin)
				w.WriteString(formatFloat(pop.Info.Lat))
				w.WriteString(formatFloat(pop.Info.Lon))
				w.WriteString(t.Marker.String())
				w.WriteString(r.Basal)
				w.WriteString(r.Subclade)
				w.WriteInt64(int64(r.Count))
				w.WriteString(formatFloat(r.Freq))
				if err := w.EndLine(); err != nil {
					return err
				}
			}
		}
		return w.Flush()
	})
}

// ReadTable reads a tidy table written by WriteTSV.  The caller names the
// marker system the file is expected to hold; rows recording a different one
// are rejected.  Row order inside each population is preserved.
func ReadTable(ctx context.Context, path string, marker haplogroup.Marker) (t *Table, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, err
		}
	}
	r := tsv.NewReader(reader)
	r.HasHeaderRow = true
	r.UseHeaderNames = true

	t = &Table{Marker: marker}
	seen := map[string]bool{}
	cur := -1
	for {
		var row tidyRow
		if rerr := r.Read(&row); rerr != nil {
			if rerr == io.EOF {
				break
			}
			return nil, errors.Wrapf(rerr, "read frequency table %s", path)
		}
		if row.Marker != marker.String() {
			return nil, errors.Errorf("%s: population %q records marker system %q, want %q",
				path, row.Population, row.Marker, marker.String())
		}
		if cur < 0 || t.Pops[cur].Info.Name != row.Population {
			if seen[row.Population] {
				return nil, errors.Errorf("%s: rows for population %q are not contiguous", path, row.Population)
			}
			seen[row.Population] = true
			info := PopulationInfo{
				Name:    row.Population,
				Country: row.Country,
				Age:     row.Age,
				AgeBin:  row.AgeBin,
			}
			if info.Lat, err = parseCell(row.Lat); err != nil {
				return nil, errors.Wrapf(err, "%s: population %q: latitude", path, row.Population)
			}
			if info.Lon, err = parseCell(row.Lon); err != nil {
				return nil, errors.Wrapf(err, "%s: population %q: longitude", path, row.Population)
			}
			t.Pops = append(t.Pops, PopulationFreq{Info: info})
			cur = len(t.Pops) - 1
		}
		pop := &t.Pops[cur]
		rec := Row{Basal: row.Basal, Subclade: row.Subclade}
		if rec.Count, err = strconv.Atoi(row.Count); err != nil {
			return nil, errors.Wrapf(err, "%s: population %q: count for %q", path, row.Population, rec.Label())
		}
		if rec.Freq, err = strconv.ParseFloat(row.Freq, 64); err != nil {
			return nil, errors.Wrapf(err, "%s: population %q: frequency for %q", path, row.Population, rec.Label())
		}
		if rec.Subclade == "" {
			pop.Info.N += rec.Count
		} else if !hasBasal(pop.Rows, rec.Basal) {
			return nil, errors.Errorf("%s: population %q: subclade %q references missing basal haplogroup %q",
				path, row.Population, rec.Subclade, rec.Basal)
		}
		pop.Rows = append(pop.Rows, rec)
	}
	log.Debug.Printf("%s: read %d populations", path, len(t.Pops))
	return t, nil
}

// WriteMatrix writes the table in wide matrix form, one row per population.
// The fixed descriptive columns are followed by every basal haplogroup in
// alphabetical order, each immediately followed by its subclades, and a
// trailing Total column.  Frequency cells are percentages ("12.50%"); the
// total is the raw basal count plus the raw subclade counts.
func WriteMatrix(path string, t *Table) error {
	basals, subs := matrixColumns(t)
	return writeTSVFile(path, func(w *tsv.Writer) error {
		w.WriteString("Ancient pop name")
		w.WriteString("Country")
		w.WriteString("Age")
		w.WriteString("Lat")
		w.WriteString("Long")
		for _, b := range basals {
			w.WriteString(b)
			for _, sc := range subs[b] {
				w.WriteString(sc)
			}
		}
		w.WriteString("Total")
		if err := w.EndLine(); err != nil {
			return err
		}

		for i := range t.Pops {
			pop := &t.Pops[i]
			freq := map[string]Row{}
			total := pop.Info.N
			for _, r := range pop.Rows {
				freq[r.Label()] = r
				if r.Subclade != "" {
					total += r.Count
				}
			}
			w.WriteString(pop.Info.Name)
			w.WriteString(pop.Info.Country)
			w.WriteString(pop.Info.Age)
			w.WriteString(formatFloat(pop.Info.Lat))
			w.WriteString(formatFloat(pop.Info.Lon))
			for _, b := range basals {
				w.WriteString(percentCell(freq[b].Freq))
				for _, sc := range subs[b] {
					w.WriteString(percentCell(freq[sc].Freq))
				}
			}
			w.WriteInt64(int64(total))
			if err := w.EndLine(); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// matrixColumns collects the basal haplogroups present anywhere in the table
// and their subclades, both alphabetically sorted.
func matrixColumns(t *Table) (basals []string, subs map[string][]string) {
	seenB := map[string]bool{}
	subs = map[string][]string{}
	seenS := map[string]bool{}
	for _, pop := range t.Pops {
		for _, r := range pop.Rows {
			if !seenB[r.Basal] {
				seenB[r.Basal] = true
				basals = append(basals, r.Basal)
			}
			if r.Subclade != "" && !seenS[r.Subclade] {
				seenS[r.Subclade] = true
				subs[r.Basal] = append(subs[r.Basal], r.Subclade)
			}
		}
	}
	sort.Strings(basals)
	for _, scs := range subs {
		sort.Strings(scs)
	}
	return basals, subs
}

// writeTSVFile atomically writes a TSV artifact at path, block-gzipping when
// the path ends in .gz.
func writeTSVFile(path string, render func(w *tsv.Writer) error) error {
	return util.WriteFileAtomic(path, func(f *os.File) error {
		w := io.Writer(f)
		var bz *bgzf.Writer
		if fileio.DetermineType(path) == fileio.Gzip {
			bz = bgzf.NewWriter(f, runtime.NumCPU())
			w = bz
		}
		if err := render(tsv.NewWriter(w)); err != nil {
			return err
		}
		if bz != nil {
			return bz.Close()
		}
		return nil
	})
}

// formatFloat renders a float for a TSV cell using the shortest
// representation that round-trips exactly.  NaN becomes an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func percentCell(freq float64) string {
	return fmt.Sprintf("%.2f%%", freq*100)
}

func hasBasal(rows []Row, basal string) bool {
	for _, r := range rows {
		if r.Subclade == "" && r.Basal == basal {
			return true
		}
	}
	return false
}
