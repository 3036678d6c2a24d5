package haplofreq

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UndatedBin is the age-bin label assigned to populations whose records carry
// no usable radiocarbon or contextual date.
const UndatedBin = "undated"

// parseNumber parses a numeric annotation field (date mean, latitude,
// longitude). Annotation sheets mark missing values with "..", "n/a" or an
// empty cell, all of which report ok=false. Infinities and NaNs in the input
// are treated as missing as well.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "..", "n/a", "N/A":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// BinLabel buckets a date (years before present) into a half-open interval
// [k*width, (k+1)*width) and renders it as e.g. "2000-3000 BP".
func BinLabel(yearsBP float64, width int) string {
	if width <= 0 {
		width = DefaultOpts.BinYears
	}
	lower := int(math.Floor(yearsBP/float64(width))) * width
	return fmt.Sprintf("%d-%d BP", lower, lower+width)
}

// AgeLabel converts a mean date in years BP (years before 1950 CE) into a
// calendar-era label such as "750 CE" or "2400 BCE". NaN yields "Unknown".
func AgeLabel(meanBP float64) string {
	if math.IsNaN(meanBP) {
		return "Unknown"
	}
	year := int(math.Round(1950 - meanBP))
	switch {
	case year > 0:
		return fmt.Sprintf("%d CE", year)
	case year < 0:
		return fmt.Sprintf("%d BCE", -year)
	default:
		return "0 CE"
	}
}

// populationName synthesizes the population label from the sampling country
// and the age bin, e.g. "Hungary 2000-3000 BP".
func populationName(country, bin string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		country = "Unknown"
	}
	return country + " " + bin
}
