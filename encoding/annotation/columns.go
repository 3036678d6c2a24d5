package annotation

import (
	"io/ioutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Columns maps the logical fields of a Record to the header names used by a
// particular annotation release.  The zero value of a field means "use the
// default"; DefaultColumns matches the AADR v54 annotation sheet.
type Columns struct {
	SampleID        string `toml:"sample_id"`
	GroupID         string `toml:"group_id"`
	PoliticalEntity string `toml:"political_entity"`
	DateMeanBP      string `toml:"date_mean_bp"`
	Lat             string `toml:"lat"`
	Lon             string `toml:"lon"`
	YHaplogroup     string `toml:"y_haplogroup"`
	MtHaplogroup    string `toml:"mt_haplogroup"`
	Assessment      string `toml:"assessment"`
}

// DefaultColumns holds the AADR v54 header names.
var DefaultColumns = Columns{
	SampleID:        "Genetic ID",
	GroupID:         "Group ID",
	PoliticalEntity: "Political Entity",
	DateMeanBP:      "Date mean in BP in years before 1950 CE [OxCal mu for a direct radiocarbon date, and average of range for a contextual date]",
	Lat:             "Lat.",
	Lon:             "Long.",
	YHaplogroup:     "Y haplogroup (manual curation in ISOGG format)",
	MtHaplogroup:    "mtDNA haplogroup if >2x or published",
	Assessment:      "ASSESSMENT",
}

// merge fills any empty field of c from DefaultColumns.
func (c Columns) merge() Columns {
	if c.SampleID == "" {
		c.SampleID = DefaultColumns.SampleID
	}
	if c.GroupID == "" {
		c.GroupID = DefaultColumns.GroupID
	}
	if c.PoliticalEntity == "" {
		c.PoliticalEntity = DefaultColumns.PoliticalEntity
	}
	if c.DateMeanBP == "" {
		c.DateMeanBP = DefaultColumns.DateMeanBP
	}
	if c.Lat == "" {
		c.Lat = DefaultColumns.Lat
	}
	if c.Lon == "" {
		c.Lon = DefaultColumns.Lon
	}
	if c.YHaplogroup == "" {
		c.YHaplogroup = DefaultColumns.YHaplogroup
	}
	if c.MtHaplogroup == "" {
		c.MtHaplogroup = DefaultColumns.MtHaplogroup
	}
	if c.Assessment == "" {
		c.Assessment = DefaultColumns.Assessment
	}
	return c
}

// LoadColumns reads a TOML column-mapping file.  Keys left out of the file
// keep their DefaultColumns values.
func LoadColumns(path string) (Columns, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Columns{}, errors.Wrapf(err, "read column mapping %s", path)
	}
	var cols Columns
	if err := toml.Unmarshal(data, &cols); err != nil {
		return Columns{}, errors.Wrapf(err, "parse column mapping %s", path)
	}
	return cols.merge(), nil
}
