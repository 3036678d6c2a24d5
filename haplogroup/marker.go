package haplogroup

import "github.com/pkg/errors"

// Marker identifies one of the two uniparental marker systems.
type Marker uint8

const (
	// Y is the Y-chromosome marker system, inherited patrilineally.
	Y Marker = iota
	// MtDNA is the mitochondrial marker system, inherited matrilineally.
	MtDNA
)

// String returns the conventional short name of the marker system.
func (m Marker) String() string {
	switch m {
	case Y:
		return "Y"
	case MtDNA:
		return "mtDNA"
	}
	return "invalid"
}

// ParseMarker parses the string forms accepted in tables and flags.
func ParseMarker(s string) (Marker, error) {
	switch s {
	case "Y", "y":
		return Y, nil
	case "mtDNA", "mtdna", "mt", "MT":
		return MtDNA, nil
	}
	return Y, errors.Errorf("unknown marker system %q (want Y or mtDNA)", s)
}
