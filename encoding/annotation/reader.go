package annotation

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/popgenlab/haplomap/util"
)

// maxLineBytes bounds one annotation row. AADR rows stay well under this.
const maxLineBytes = 4 * 1024 * 1024

// maxSuggestDistance bounds how far a closest-header suggestion may be before
// it is more confusing than helpful.
const maxSuggestDistance = 10

// ReadAnnotation reads a raw annotation table at path (tab-separated, plain
// or gzipped), locating fields through the header names in cols.  Sample ID,
// assessment, political entity and the two coordinate columns are required; a
// header lacking any of them yields a *FormatError that names every missing
// column together with its closest actual header.  The haplogroup, group-ID
// and date columns are optional: when absent the corresponding Record fields
// are empty and a warning is logged once.  Rows too short to carry the
// required columns are skipped and counted.
func ReadAnnotation(ctx context.Context, path string, cols Columns) (recs []Record, err error) {
	cols = cols.merge()
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
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	required := []string{cols.SampleID, cols.Assessment, cols.PoliticalEntity, cols.Lat, cols.Lon}
	if !scanner.Scan() {
		if serr := scanner.Err(); serr != nil {
			return nil, serr
		}
		return nil, &FormatError{Path: path, Missing: required, Hints: make([]string, len(required))}
	}
	header := strings.Split(scanner.Text(), "\t")
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	ferr := &FormatError{Path: path}
	maxRequired := 0
	for _, name := range required {
		i := lookup(name)
		if i < 0 {
			hint, dist := util.ClosestName(name, header)
			if dist > maxSuggestDistance {
				hint = ""
			}
			ferr.Missing = append(ferr.Missing, name)
			ferr.Hints = append(ferr.Hints, hint)
			continue
		}
		if i > maxRequired {
			maxRequired = i
		}
	}
	if len(ferr.Missing) > 0 {
		return nil, ferr
	}

	sampleIdx := lookup(cols.SampleID)
	assessIdx := lookup(cols.Assessment)
	countryIdx := lookup(cols.PoliticalEntity)
	latIdx := lookup(cols.Lat)
	lonIdx := lookup(cols.Lon)
	groupIdx := lookup(cols.GroupID)
	dateIdx := lookup(cols.DateMeanBP)
	yIdx := lookup(cols.YHaplogroup)
	mtIdx := lookup(cols.MtHaplogroup)
	if yIdx < 0 {
		log.Error.Printf("%s: Y haplogroup column %q not found; Y-chromosome records will be empty", path, cols.YHaplogroup)
	}
	if mtIdx < 0 {
		log.Error.Printf("%s: mtDNA haplogroup column %q not found; mtDNA records will be empty", path, cols.MtHaplogroup)
	}
	if dateIdx < 0 {
		log.Error.Printf("%s: date column %q not found; populations will be undated", path, cols.DateMeanBP)
	}

	get := func(fields []string, i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}
	nShort := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= maxRequired {
			nShort++
			continue
		}
		recs = append(recs, Record{
			SampleID:        get(fields, sampleIdx),
			GroupID:         get(fields, groupIdx),
			PoliticalEntity: get(fields, countryIdx),
			DateMeanBP:      get(fields, dateIdx),
			Lat:             get(fields, latIdx),
			Lon:             get(fields, lonIdx),
			YHaplogroup:     get(fields, yIdx),
			MtHaplogroup:    get(fields, mtIdx),
			Assessment:      get(fields, assessIdx),
		})
	}
	if serr := scanner.Err(); serr != nil {
		return nil, serr
	}
	if nShort > 0 {
		log.Error.Printf("%s: skipped %d row(s) too short for the required columns", path, nShort)
	}
	log.Debug.Printf("%s: read %d annotation records", path, len(recs))
	return recs, nil
}
