package main

/*
haplo-freq aggregates a filtered annotation table into per-population
haplogroup frequency tables, one for the Y chromosome and one for mtDNA.
Tables are written in tidy form for haplo-map; -matrix additionally writes
the wide one-row-per-population matrix form next to each tidy table.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/popgenlab/haplomap/encoding/annotation"
	"github.com/popgenlab/haplomap/haplofreq"
	"github.com/popgenlab/haplomap/haplogroup"
)

var (
	inputPath  = flag.String("input", "", "Input filtered annotation table from haplo-filter; required")
	yOutPath   = flag.String("y_output", "Y_haplogroup_frequencies.tsv", "Output Y-chromosome frequency table")
	mtOutPath  = flag.String("mt_output", "mtDNA_haplogroup_frequencies.tsv", "Output mtDNA frequency table")
	matrix     = flag.Bool("matrix", false, "Also write wide matrix tables next to the tidy ones")
	binYears   = flag.Int("bin_years", haplofreq.DefaultOpts.BinYears, "Width of the age bins, in years before present")
	minPopSize = flag.Int("min_pop_size", haplofreq.DefaultOpts.MinPopSize, "Drop populations with fewer analyzable samples")
)

func haploFreqUsage() {
	fmt.Printf("Usage: %s -input filtered.tsv [-y_output y.tsv] [-mt_output mt.tsv]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = haploFreqUsage
	shutdown := grail.Init()
	defer shutdown()

	if *inputPath == "" {
		log.Fatalf("-input is required")
	}
	ctx := vcontext.Background()

	recs, err := annotation.ReadFiltered(ctx, *inputPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := haplofreq.Opts{
		BinYears:   *binYears,
		MinPopSize: *minPopSize,
	}
	writeTables(haplogroup.Y, recs, opts, *yOutPath)
	writeTables(haplogroup.MtDNA, recs, opts, *mtOutPath)
}

func writeTables(marker haplogroup.Marker, recs []annotation.Record, opts haplofreq.Opts, path string) {
	table, stats, err := haplofreq.Aggregate(recs, marker, opts)
	switch err {
	case nil:
	case haplofreq.ErrNoRecords:
		log.Error.Printf("%s: no analyzable %s record; writing an empty table", path, marker)
	default:
		log.Fatalf("%v", err)
	}
	if err := haplofreq.WriteTSV(path, table); err != nil {
		log.Fatalf("%v", err)
	}
	if *matrix {
		if err := haplofreq.WriteMatrix(matrixPath(path), table); err != nil {
			log.Fatalf("%v", err)
		}
	}
	log.Printf("%s: %d populations from %d records (%d missing calls, %d unparseable, %d undated, %d small populations dropped)",
		path, stats.Populations, stats.Records, stats.MissingCall, stats.InvalidCall, stats.Undated, stats.SmallPops)
}

// matrixPath derives the matrix table name from the tidy one:
// x.tsv -> x.matrix.tsv, x.tsv.gz -> x.matrix.tsv.gz.
func matrixPath(path string) string {
	gz := ""
	if strings.HasSuffix(path, ".gz") {
		path, gz = strings.TrimSuffix(path, ".gz"), ".gz"
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[:i] + ".matrix" + path[i:] + gz
	}
	return path + ".matrix" + gz
}
