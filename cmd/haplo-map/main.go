package main

/*
haplo-map renders per-population haplogroup frequency tables onto an
interactive HTML map. Each population becomes a clickable marker showing a
two-ring chart: the inner ring holds basal haplogroup frequencies, the
outer ring splits each basal slice among its subclades. With -summary the
tool also writes a static chart page with per-population breakdowns.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/popgenlab/haplomap/geomap"
	"github.com/popgenlab/haplomap/haplofreq"
	"github.com/popgenlab/haplomap/haplogroup"
	"github.com/popgenlab/haplomap/report"
)

var (
	yInputPath  = flag.String("y_input", "", "Y-chromosome frequency table from haplo-freq")
	mtInputPath = flag.String("mt_input", "", "mtDNA frequency table from haplo-freq")
	outputPath  = flag.String("output", "haplogroup_map.html", "Output HTML map")
	summaryPath = flag.String("summary", "", "Optional output HTML page with per-population summary charts")
	title       = flag.String("title", geomap.DefaultTitle, "Map page title")
	parallelism = flag.Int("parallelism", 0, "Number of populations to lay out concurrently; 0 means NumCPU")
)

func init() {
	flag.StringVar(outputPath, "o", "haplogroup_map.html", "Shorthand for -output")
}

func haploMapUsage() {
	fmt.Printf("Usage: %s [-y_input y.tsv] [-mt_input mt.tsv] [-o map.html]\n", os.Args[0])
	fmt.Printf("At least one of -y_input and -mt_input is required.\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = haploMapUsage
	shutdown := grail.Init()
	defer shutdown()

	if *yInputPath == "" && *mtInputPath == "" {
		log.Fatalf("at least one of -y_input and -mt_input is required")
	}
	ctx := vcontext.Background()

	var tables []*haplofreq.Table
	if *yInputPath != "" {
		t, err := haplofreq.ReadTable(ctx, *yInputPath, haplogroup.Y)
		if err != nil {
			log.Fatalf("%v", err)
		}
		tables = append(tables, t)
	}
	if *mtInputPath != "" {
		t, err := haplofreq.ReadTable(ctx, *mtInputPath, haplogroup.MtDNA)
		if err != nil {
			log.Fatalf("%v", err)
		}
		tables = append(tables, t)
	}

	markers, err := geomap.Build(tables, *parallelism)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(markers) == 0 {
		log.Error.Printf("input tables contain no populations; writing an empty map")
	}
	if err := geomap.WriteHTML(*outputPath, *title, markers); err != nil {
		log.Fatalf("%v", err)
	}
	if *summaryPath != "" {
		if err := report.WritePage(*summaryPath, *title, tables); err != nil {
			log.Fatalf("%v", err)
		}
	}
}
