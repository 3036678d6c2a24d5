package geomap

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/popgenlab/haplomap/haplofreq"
	"github.com/popgenlab/haplomap/haplogroup"
	"github.com/popgenlab/haplomap/ring"
)

// avariaTable is one mtDNA population of ten samples: six basal H split into
// subclades H1 and H2, four basal J all carrying J1.
func avariaTable() *haplofreq.Table {
	return &haplofreq.Table{
		Marker: haplogroup.MtDNA,
		Pops: []haplofreq.PopulationFreq{{
			Info: haplofreq.PopulationInfo{
				Name:    "Avaria 2000-3000 BP",
				Country: "Avaria",
				AgeBin:  "2000-3000 BP",
				Age:     "550 BCE",
				Lat:     47.5,
				Lon:     19.25,
				N:       10,
			},
			Rows: []haplofreq.Row{
				{Basal: "H", Count: 6, Freq: 0.6},
				{Basal: "H", Subclade: "H1", Count: 3, Freq: 0.5},
				{Basal: "H", Subclade: "H2", Count: 3, Freq: 0.5},
				{Basal: "J", Count: 4, Freq: 0.4},
				{Basal: "J", Subclade: "J1", Count: 4, Freq: 1},
			},
		}},
	}
}

func TestBuild(t *testing.T) {
	markers, err := Build([]*haplofreq.Table{avariaTable()}, 0)
	assert.NoError(t, err)
	assert.EQ(t, len(markers), 1)

	m := markers[0]
	expect.True(t, strings.HasPrefix(m.ID, "chart_"))
	expect.EQ(t, m.System, "mtDNA")
	expect.EQ(t, m.Population, "Avaria 2000-3000 BP")
	expect.EQ(t, m.Country, "Avaria")
	expect.EQ(t, m.Age, "550 BCE")
	expect.EQ(t, m.N, 10)
	expect.EQ(t, m.Lat, 47.5)
	expect.EQ(t, m.Lon, 19.25)
	if m.YearCE == nil || *m.YearCE != -550 {
		t.Errorf("YearCE = %v, want -550", m.YearCE)
	}

	if diff := cmp.Diff([]string{"H", "H1", "H2", "J", "J1"}, m.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{60, 0, 0, 40, 0}, m.Inner); diff != "" {
		t.Errorf("inner ring mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 30, 30, 0, 40}, m.Outer); diff != "" {
		t.Errorf("outer ring mismatch (-want +got):\n%s", diff)
	}

	wantDisplay := []*float64{nil, ptr(50), ptr(50), nil, ptr(100)}
	assert.EQ(t, len(m.Display), len(wantDisplay))
	for i, want := range wantDisplay {
		got := m.Display[i]
		switch {
		case want == nil:
			expect.True(t, got == nil)
		case got == nil:
			t.Errorf("display[%d] = nil, want %v", i, *want)
		default:
			expect.EQ(t, *got, *want)
		}
	}
	for i, u := range m.Undetermined {
		if u {
			t.Errorf("slot %d unexpectedly undetermined", i)
		}
	}
	for _, c := range m.Colors {
		expect.True(t, strings.HasPrefix(c, "rgba("))
	}
}

func ptr(v float64) *float64 { return &v }

func TestBuildUndetermined(t *testing.T) {
	table := &haplofreq.Table{
		Marker: haplogroup.MtDNA,
		Pops: []haplofreq.PopulationFreq{{
			Info: haplofreq.PopulationInfo{Name: "Kushania 0-1000 BP", Country: "Kushania",
				Age: "950 CE", Lat: 41, Lon: 70, N: 2},
			Rows: []haplofreq.Row{{Basal: "K", Count: 2, Freq: 1}},
		}},
	}
	markers, err := Build([]*haplofreq.Table{table}, 1)
	assert.NoError(t, err)
	m := markers[0]
	if diff := cmp.Diff([]string{"K", ring.UndeterminedLabel}, m.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 0}, m.Inner); diff != "" {
		t.Errorf("inner ring mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 100}, m.Outer); diff != "" {
		t.Errorf("outer ring mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, true}, m.Undetermined); diff != "" {
		t.Errorf("undetermined mismatch (-want +got):\n%s", diff)
	}
	expect.True(t, m.Display[1] == nil)
	expect.EQ(t, m.Colors[1], UndeterminedColor)
}

func TestBuildNoCoordinates(t *testing.T) {
	table := avariaTable()
	table.Pops[0].Info.Lat = math.NaN()
	_, err := Build([]*haplofreq.Table{table}, 1)
	expect.True(t, err != nil)
	expect.True(t, strings.Contains(err.Error(), "Avaria 2000-3000 BP"))
	expect.True(t, strings.Contains(err.Error(), "coordinates"))
}

func TestBuildInconsistentShares(t *testing.T) {
	table := &haplofreq.Table{
		Marker: haplogroup.MtDNA,
		Pops: []haplofreq.PopulationFreq{{
			Info: haplofreq.PopulationInfo{Name: "Broken 0-1000 BP", Lat: 1, Lon: 1, N: 2},
			Rows: []haplofreq.Row{{Basal: "H", Count: 1, Freq: 0.5}},
		}},
	}
	_, err := Build([]*haplofreq.Table{table}, 1)
	expect.True(t, err != nil)
	expect.True(t, strings.Contains(err.Error(), "Broken 0-1000 BP"))
	expect.True(t, strings.Contains(err.Error(), "sum"))
}

func TestParseYearCE(t *testing.T) {
	tests := []struct {
		age  string
		want *int
	}{
		{"550 BCE", intPtr(-550)},
		{"950 CE", intPtr(950)},
		{"0 CE", intPtr(0)},
		{"Unknown", nil},
		{"sometime", nil},
		{" CE", nil},
	}
	for _, test := range tests {
		got := parseYearCE(test.age)
		switch {
		case test.want == nil:
			if got != nil {
				t.Errorf("parseYearCE(%q) = %d, want nil", test.age, *got)
			}
		case got == nil:
			t.Errorf("parseYearCE(%q) = nil, want %d", test.age, *test.want)
		case *got != *test.want:
			t.Errorf("parseYearCE(%q) = %d, want %d", test.age, *got, *test.want)
		}
	}
}

func intPtr(v int) *int { return &v }

func TestPalette(t *testing.T) {
	labels := []string{"H", "H1", "H2", "J", "J1", "K"}
	colors := Palette(labels)
	expect.EQ(t, len(colors), len(labels))
	seen := map[string]bool{}
	for _, lbl := range labels {
		c := colors[lbl]
		expect.True(t, strings.HasPrefix(c, "rgba("))
		expect.False(t, seen[c])
		seen[c] = true
	}
	// Stable across calls and input order.
	again := Palette([]string{"K", "J1", "J", "H2", "H1", "H"})
	expect.EQ(t, again, colors)
}

func TestChartID(t *testing.T) {
	a := chartID("Y", "Avaria 2000-3000 BP")
	expect.EQ(t, a, chartID("Y", "Avaria 2000-3000 BP"))
	if b := chartID("mtDNA", "Avaria 2000-3000 BP"); a == b {
		t.Errorf("chart ids for different marker systems collide: %s", a)
	}
	expect.EQ(t, len(a), len("chart_")+16)
}

// The page script dereferences marker JSON by these exact keys; a renamed
// struct tag would break the map silently, so pin them.
func TestMarkerJSON(t *testing.T) {
	markers, err := Build([]*haplofreq.Table{avariaTable()}, 0)
	assert.NoError(t, err)
	payload, err := json.Marshal(markers[0])
	assert.NoError(t, err)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(payload, &decoded))
	for _, key := range []string{
		"id", "system", "population", "country", "age", "yearCE", "n",
		"lat", "lon", "labels", "inner", "outer", "display", "colors", "undetermined",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("marker JSON lacks key %q", key)
		}
	}
	if got := decoded["system"]; got != "mtDNA" {
		t.Errorf("system: got %v, want mtDNA", got)
	}
	if got := decoded["yearCE"]; got != -550.0 {
		t.Errorf("yearCE: got %v, want -550", got)
	}
	inner := decoded["inner"].([]interface{})
	if inner[0] != 60.0 {
		t.Errorf("inner[0]: got %v, want 60", inner[0])
	}
	display := decoded["display"].([]interface{})
	expect.Nil(t, display[0])
	if display[1] != 50.0 {
		t.Errorf("display[1]: got %v, want 50", display[1])
	}
}

func TestCenter(t *testing.T) {
	lat, lon := center([]Marker{{Lat: 40, Lon: 10}, {Lat: 50, Lon: 30}})
	expect.EQ(t, lat, 45.0)
	expect.EQ(t, lon, 20.0)
	lat, lon = center(nil)
	expect.EQ(t, lat, 20.0)
	expect.EQ(t, lon, 0.0)
}

func TestWriteHTML(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	markers, err := Build([]*haplofreq.Table{avariaTable()}, 0)
	assert.NoError(t, err)
	path := filepath.Join(tempDir, "map.html")
	assert.NoError(t, WriteHTML(path, "", markers))

	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	page := string(data)
	for _, want := range []string{
		"<title>Ancient haplogroup map</title>",
		"leaflet",
		"chart.js",
		"chartjs-plugin-datalabels",
		"bpDropdown",
		"showYChr",
		"showMtDNA",
		`"population":"Avaria 2000-3000 BP"`,
		"setView",
		" 47.5 ",
		" 19.25 ",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestWriteHTMLEmpty(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "map.html")
	assert.NoError(t, WriteHTML(path, "Empty run", nil))
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	page := string(data)
	expect.True(t, strings.Contains(page, "<title>Empty run</title>"))
	expect.True(t, strings.Contains(page, "markersData = []"))
}

func TestWriteHTMLDeterministic(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	markers, err := Build([]*haplofreq.Table{avariaTable()}, 0)
	assert.NoError(t, err)
	paths := []string{filepath.Join(tempDir, "a.html"), filepath.Join(tempDir, "b.html")}
	for _, path := range paths {
		assert.NoError(t, WriteHTML(path, "Map", markers))
	}
	a, err := ioutil.ReadFile(paths[0])
	assert.NoError(t, err)
	b, err := ioutil.ReadFile(paths[1])
	assert.NoError(t, err)
	expect.EQ(t, string(a), string(b))
}
