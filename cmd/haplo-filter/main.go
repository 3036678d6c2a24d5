package main

/*
haplo-filter extracts the analyzable rows from an ancient-DNA annotation
sheet. A row survives when its assessment column reads PASS and its sample id
appears in the allowlist; surviving rows are written as a canonical filtered
table for haplo-freq, in input order.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/popgenlab/haplomap/encoding/annotation"
)

var (
	annotationPath = flag.String("annotation", "", "Input annotation sheet (TSV, .gz supported); required")
	samplesPath    = flag.String("samples", "", "Sample allowlist, one sample per line; required")
	outputPath     = flag.String("output", "annotation_filtered.tsv", "Output filtered table; .gz writes block-gzipped")
	columnsPath    = flag.String("columns", "", "Optional TOML file overriding annotation column names")
)

func init() {
	flag.StringVar(annotationPath, "a", "", "Shorthand for -annotation")
	flag.StringVar(samplesPath, "s", "", "Shorthand for -samples")
	flag.StringVar(outputPath, "o", "annotation_filtered.tsv", "Shorthand for -output")
}

func haploFilterUsage() {
	fmt.Printf("Usage: %s -annotation annotation.tsv -samples samples.txt [-output filtered.tsv]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = haploFilterUsage
	shutdown := grail.Init()
	defer shutdown()

	if *annotationPath == "" {
		log.Fatalf("-annotation is required")
	}
	if *samplesPath == "" {
		log.Fatalf("-samples is required")
	}
	ctx := vcontext.Background()

	cols := annotation.DefaultColumns
	if *columnsPath != "" {
		var err error
		if cols, err = annotation.LoadColumns(*columnsPath); err != nil {
			log.Fatalf("%v", err)
		}
	}
	recs, err := annotation.ReadAnnotation(ctx, *annotationPath, cols)
	if err != nil {
		log.Fatalf("%v", err)
	}
	allowed, err := annotation.ReadSampleList(ctx, *samplesPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	kept := annotation.Filter(recs, allowed)
	if len(kept) == 0 {
		log.Error.Printf("no record passed filtering (%d read, %d samples allowed); writing an empty table",
			len(recs), len(allowed))
	}
	if err := annotation.WriteFiltered(ctx, *outputPath, kept); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s: kept %d of %d records", *outputPath, len(kept), len(recs))
}
