package annotation

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func testWriteFile(dir, data string) string {
	f, err := ioutil.TempFile(dir, "")
	if err != nil {
		panic(err)
	}
	if _, err := f.Write([]byte(data)); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name()
}

func tsvData(rows ...[]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestFilter(t *testing.T) {
	recs := []Record{
		{SampleID: "S1", Assessment: "PASS"},
		{SampleID: "S2", Assessment: "FAIL"},
		{SampleID: "S3", Assessment: "PASS"},
		{SampleID: "S4", Assessment: "PASS"},
	}
	allowed := map[string]bool{"S1": true, "S2": true, "S4": true}
	got := Filter(recs, allowed)
	expect.EQ(t, len(got), 2)
	// Input order is preserved.
	expect.EQ(t, got[0].SampleID, "S1")
	expect.EQ(t, got[1].SampleID, "S4")

	// No survivors is a valid outcome, not an error.
	expect.EQ(t, len(Filter(recs, map[string]bool{"S9": true})), 0)
}

func TestReadAnnotation(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	d := DefaultColumns

	path := testWriteFile(tempDir, tsvData(
		[]string{d.SampleID, d.GroupID, d.PoliticalEntity, d.DateMeanBP, d.Lat, d.Lon, d.YHaplogroup, d.MtHaplogroup, d.Assessment},
		[]string{"S1", "Hungary_BA", "Hungary", "3500", "47.1", "19.5", "R1b1a2", "H1a1", "PASS"},
		[]string{"S2", "Hungary_BA", "Hungary", "3600", "..", "..", "..", "U5b2b", "FAIL"},
	))
	recs, err := ReadAnnotation(ctx, path, Columns{})
	assert.NoError(t, err)
	assert.EQ(t, len(recs), 2)
	expect.EQ(t, recs[0], Record{
		SampleID:        "S1",
		GroupID:         "Hungary_BA",
		PoliticalEntity: "Hungary",
		DateMeanBP:      "3500",
		Lat:             "47.1",
		Lon:             "19.5",
		YHaplogroup:     "R1b1a2",
		MtHaplogroup:    "H1a1",
		Assessment:      "PASS",
	})
	expect.EQ(t, recs[1].Lat, "..")
	expect.EQ(t, recs[1].Assessment, "FAIL")
}

func TestReadAnnotationGzip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	d := DefaultColumns

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(tsvData(
		[]string{d.SampleID, d.GroupID, d.PoliticalEntity, d.DateMeanBP, d.Lat, d.Lon, d.YHaplogroup, d.MtHaplogroup, d.Assessment},
		[]string{"S1", "G", "Spain", "1200", "40.0", "-3.7", "I2a", "K1a", "PASS"},
	)))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())
	path := filepath.Join(tempDir, "annotation.tsv.gz")
	assert.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0600))

	recs, err := ReadAnnotation(ctx, path, Columns{})
	assert.NoError(t, err)
	assert.EQ(t, len(recs), 1)
	expect.EQ(t, recs[0].SampleID, "S1")
	expect.EQ(t, recs[0].PoliticalEntity, "Spain")
}

func TestReadAnnotationMissingColumns(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	d := DefaultColumns

	// The quality-flag header is misspelled and the coordinate columns are
	// absent entirely.
	path := testWriteFile(tempDir, tsvData(
		[]string{d.SampleID, d.PoliticalEntity, "ASSESMENT", d.YHaplogroup},
		[]string{"S1", "Hungary", "PASS", "R1b"},
	))
	_, err := ReadAnnotation(ctx, path, Columns{})
	ferr, ok := err.(*FormatError)
	assert.True(t, ok)
	expect.EQ(t, ferr.Path, path)
	expect.EQ(t, ferr.Missing, []string{d.Assessment, d.Lat, d.Lon})
	expect.EQ(t, ferr.Hints[0], "ASSESMENT")
	expect.True(t, strings.Contains(ferr.Error(), "ASSESSMENT"))
	expect.True(t, strings.Contains(ferr.Error(), "closest header"))
}

func TestReadAnnotationOptionalColumns(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	d := DefaultColumns

	// Only the required columns are present: haplogroup calls, group and
	// date come back empty but the read succeeds.
	path := testWriteFile(tempDir, tsvData(
		[]string{d.SampleID, d.PoliticalEntity, d.Lat, d.Lon, d.Assessment},
		[]string{"S1", "Kenya", "-1.3", "36.8", "PASS"},
	))
	recs, err := ReadAnnotation(ctx, path, Columns{})
	assert.NoError(t, err)
	assert.EQ(t, len(recs), 1)
	expect.EQ(t, recs[0].YHaplogroup, "")
	expect.EQ(t, recs[0].MtHaplogroup, "")
	expect.EQ(t, recs[0].DateMeanBP, "")
}

func TestReadAnnotationShortRows(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()
	d := DefaultColumns

	path := testWriteFile(tempDir, tsvData(
		[]string{d.SampleID, d.GroupID, d.PoliticalEntity, d.DateMeanBP, d.Lat, d.Lon, d.YHaplogroup, d.MtHaplogroup, d.Assessment},
		[]string{"S1", "G", "Italy", "900", "41.9", "12.5", "J2", "T2b", "PASS"},
		[]string{"S2", "truncated"},
	))
	recs, err := ReadAnnotation(ctx, path, Columns{})
	assert.NoError(t, err)
	assert.EQ(t, len(recs), 1)
	expect.EQ(t, recs[0].SampleID, "S1")
}

func TestFilteredRoundTrip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	recs := []Record{
		{SampleID: "S1", GroupID: "G1", PoliticalEntity: "Hungary", DateMeanBP: "3500",
			Lat: "47.1", Lon: "19.5", YHaplogroup: "R1b1a2", MtHaplogroup: "H1a1", Assessment: "PASS"},
		{SampleID: "S2", GroupID: "G1", PoliticalEntity: "Hungary", DateMeanBP: "..",
			Lat: "..", Lon: "..", YHaplogroup: "", MtHaplogroup: "U5b2b", Assessment: "PASS"},
	}
	for _, name := range []string{"filtered.tsv", "filtered.tsv.gz"} {
		path := filepath.Join(tempDir, name)
		assert.NoError(t, WriteFiltered(ctx, path, recs))
		got, err := ReadFiltered(ctx, path)
		assert.NoError(t, err)
		expect.EQ(t, got, recs)
	}
}

func TestReadSampleList(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	path := testWriteFile(tempDir, strings.Join([]string{
		"# ancient individuals",
		"1 S1 F",
		"2 S2 M",
		"",
		"S3",
		"2 S2 M", // duplicate
	}, "\n")+"\n")
	allowed, err := ReadSampleList(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, allowed, map[string]bool{"S1": true, "S2": true, "S3": true})

	empty := testWriteFile(tempDir, "# nothing here\n\n")
	_, err = ReadSampleList(ctx, empty)
	expect.True(t, err != nil)
}

func TestLoadColumns(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := testWriteFile(tempDir, strings.Join([]string{
		`sample_id = "ID"`,
		`assessment = "QC"`,
	}, "\n")+"\n")
	cols, err := LoadColumns(path)
	assert.NoError(t, err)
	expect.EQ(t, cols.SampleID, "ID")
	expect.EQ(t, cols.Assessment, "QC")
	// Unset keys keep the AADR defaults.
	expect.EQ(t, cols.Lat, DefaultColumns.Lat)
	expect.EQ(t, cols.MtHaplogroup, DefaultColumns.MtHaplogroup)

	_, err = LoadColumns(filepath.Join(tempDir, "nope.toml"))
	expect.True(t, err != nil)
}
