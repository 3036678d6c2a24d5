package geomap

import (
	"fmt"
	"math"
	"sort"

	farm "github.com/dgryski/go-farm"
)

// UndeterminedColor fills outer-ring slices that stand in for samples with no
// designated subclade. Muted so the parent slice underneath reads through.
const UndeterminedColor = "rgba(204, 204, 204, 0.45)"

// Palette assigns every label a stable CSS color. Hues are spread uniformly
// over the sorted label set; saturation and value are jittered per label so
// neighboring hues stay distinguishable. The same label set always produces
// the same colors, keeping rendered maps reproducible.
func Palette(labels []string) map[string]string {
	uniq := map[string]bool{}
	sorted := []string{}
	for _, lbl := range labels {
		if !uniq[lbl] {
			uniq[lbl] = true
			sorted = append(sorted, lbl)
		}
	}
	sort.Strings(sorted)

	colors := make(map[string]string, len(sorted))
	for i, lbl := range sorted {
		h := float64(i) / float64(len(sorted))
		hash := farm.Hash64([]byte(lbl))
		s := 0.65 + 0.35*unit(hash)
		v := 0.8 + 0.2*unit(hash>>16)
		r, g, b := hsvToRGB(h, s, v)
		colors[lbl] = fmt.Sprintf("rgba(%d, %d, %d, 0.75)",
			int(r*255), int(g*255), int(b*255))
	}
	return colors
}

// unit maps the low 16 bits of a hash to [0, 1).
func unit(hash uint64) float64 {
	return float64(hash&0xffff) / 65536.0
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h = math.Mod(h, 1) * 6
	sector := int(h)
	f := h - float64(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch sector {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
