package annotation

import (
	"context"
	"io"
	"runtime"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// filteredColumns is the canonical column order of filtered tables, one name
// per Record field.  ReadFiltered locates columns by these header names, so
// reordered or extended tables still load.
var filteredColumns = []string{
	"SampleID", "GroupID", "PoliticalEntity", "DateMeanBP",
	"Lat", "Lon", "YHaplogroup", "MtHaplogroup", "Assessment",
}

// WriteFiltered writes recs as a canonical filtered annotation table at path.
// A path ending in .gz is written block-gzipped.
func WriteFiltered(ctx context.Context, path string, recs []Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := io.Writer(out.Writer(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		bgzfWriter := bgzf.NewWriter(w, runtime.NumCPU())
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}
	tw := tsv.NewWriter(w)
	for _, name := range filteredColumns {
		tw.WriteString(name)
	}
	if err = tw.EndLine(); err != nil {
		return err
	}
	for _, r := range recs {
		tw.WriteString(r.SampleID)
		tw.WriteString(r.GroupID)
		tw.WriteString(r.PoliticalEntity)
		tw.WriteString(r.DateMeanBP)
		tw.WriteString(r.Lat)
		tw.WriteString(r.Lon)
		tw.WriteString(r.YHaplogroup)
		tw.WriteString(r.MtHaplogroup)
		tw.WriteString(r.Assessment)
		if err = tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// ReadFiltered loads a table written by WriteFiltered.
func ReadFiltered(ctx context.Context, path string) (recs []Record, err error) {
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
	for {
		var rec Record
		if rerr := r.Read(&rec); rerr != nil {
			if rerr == io.EOF {
				break
			}
			return nil, errors.Wrapf(rerr, "read filtered table %s", path)
		}
		recs = append(recs, rec)
	}
	log.Debug.Printf("%s: read %d filtered records", path, len(recs))
	return recs, nil
}
