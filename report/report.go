// Package report renders static summary charts for haplogroup frequency
// tables: a per-population sample-count bar chart for each marker system,
// followed by a nested pie per population mirroring the two-ring charts on
// the map. The page is a plain HTML artifact meant for a quick look at a run
// without opening the interactive map.
package report

import (
	"bytes"
	"fmt"
	"os"

	farm "github.com/dgryski/go-farm"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"github.com/popgenlab/haplomap/geomap"
	"github.com/popgenlab/haplomap/haplofreq"
	"github.com/popgenlab/haplomap/ring"
	"github.com/popgenlab/haplomap/util"
)

// WritePage renders summary charts for the tables at path. Charts keep the
// map's color assignment so a haplogroup looks the same in both artifacts.
// Populations without coordinates are fine here; only the ring layout has to
// hold together. Empty tables produce a valid page with no charts.
func WritePage(path, title string, tables []*haplofreq.Table) error {
	colors := geomap.Palette(labelsOf(tables))

	charters := []components.Charter{}
	npops := 0
	for _, table := range tables {
		if len(table.Pops) == 0 {
			continue
		}
		charters = append(charters, sampleBar(table))
		for i := range table.Pops {
			pop := &table.Pops[i]
			pie, err := populationPie(table.Marker.String(), pop, colors)
			if err != nil {
				return err
			}
			charters = append(charters, pie)
			npops++
		}
	}

	page := components.NewPage()
	page.AddCharts(charters...)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return errors.Wrapf(err, "render summary page %s", path)
	}
	if err := util.WriteFileAtomic(path, func(f *os.File) error {
		_, werr := f.Write(buf.Bytes())
		return werr
	}); err != nil {
		return err
	}
	log.Printf("%s: wrote summary for %d populations (%s)", path, npops, title)
	return nil
}

// sampleBar charts the analyzable sample count of every population in one
// marker system.
func sampleBar(table *haplofreq.Table) *charts.Bar {
	x := make([]string, len(table.Pops))
	y := make([]opts.BarData, len(table.Pops))
	for i := range table.Pops {
		x[i] = table.Pops[i].Info.Name
		y[i] = opts.BarData{Value: table.Pops[i].Info.N}
	}

	system := table.Marker.String()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: chartID("bar", system),
			Width:   "1200px",
			Height:  "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s samples per population", system),
			Subtitle: fmt.Sprintf("%d populations", len(table.Pops)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("samples", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// populationPie builds the nested two-ring pie for one population. Both
// series hold percentages of the full circle, so the outer ring's slices sit
// exactly over their basal parents.
func populationPie(system string, pop *haplofreq.PopulationFreq, colors map[string]string) (*charts.Pie, error) {
	inner, outer, err := ring.Layout(pop.BasalShares(), pop.SubcladeShares())
	if err != nil {
		return nil, errors.Wrapf(err, "population %q", pop.Info.Name)
	}

	innerData := make([]opts.PieData, len(inner))
	for i, s := range inner {
		innerData[i] = opts.PieData{
			Name:      s.Label,
			Value:     s.Span() / 3.6,
			ItemStyle: &opts.ItemStyle{Color: colors[s.Label]},
		}
	}
	outerData := make([]opts.PieData, len(outer))
	for i, s := range outer {
		color := colors[s.Label]
		if s.Label == ring.UndeterminedLabel {
			color = geomap.UndeterminedColor
		}
		outerData[i] = opts.PieData{
			Name:      s.Label,
			Value:     s.Span() / 3.6,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: chartID(system, pop.Info.Name),
			Width:   "900px",
			Height:  "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    pop.Info.Name,
			Subtitle: fmt.Sprintf("%s, n=%d, %s", system, pop.Info.N, pop.Info.Age),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("basal", innerData,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"0%", "40%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}"}),
	)
	pie.AddSeries("subclades", outerData,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"55%", "75%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b} ({d}%)"}),
	)
	return pie, nil
}

func labelsOf(tables []*haplofreq.Table) []string {
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

// chartID pins every chart's DOM id so repeated runs render identical pages.
func chartID(kind, name string) string {
	return fmt.Sprintf("hm%016x", farm.Hash64([]byte(kind+"|"+name)))
}
