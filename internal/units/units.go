// Package units parses the dimensional strings used throughout the touch
// driver's configuration ("16cm", "30px", "9in") and resolves them to
// pixels given the panel's physical size and the screen's pixel count.
package units

import (
	"fmt"
	"regexp"
	"strconv"
)

var valueUnitRE = regexp.MustCompile(`^(?P<value>[0-9]+(?:[.,][0-9]+)?) ?(?P<unit>[a-zA-Z]*)$`)

// Resolver converts length strings to pixels using a fixed pixels-per-mm
// ratio, computed once at startup from the configured device physical size
// and screen resolution.
type Resolver struct {
	ppmmX, ppmmY, ppmmMean float64
}

// NewResolver derives pixels-per-mm from the panel's physical size (mm) and
// the screen's pixel resolution.
func NewResolver(devWidthMM, devHeightMM float64, screenW, screenH int) (Resolver, error) {
	if devWidthMM <= 0 || devHeightMM <= 0 {
		return Resolver{}, fmt.Errorf("units: device size must be positive, got %gx%g mm", devWidthMM, devHeightMM)
	}
	if screenW <= 0 || screenH <= 0 {
		return Resolver{}, fmt.Errorf("units: screen resolution must be positive, got %dx%d", screenW, screenH)
	}
	x := float64(screenW) / devWidthMM
	y := float64(screenH) / devHeightMM
	return Resolver{ppmmX: x, ppmmY: y, ppmmMean: (x + y) / 2}, nil
}

// PPMMMean is the mean pixels-per-mm ratio used for pixel<->length
// conversions that do not distinguish between axes.
func (r Resolver) PPMMMean() float64 { return r.ppmmMean }

// Pixels parses s as "<number><unit>" with unit in {px, PX, cm, mm, in,
// empty}, returning a pixel count. A bare number (no unit) is returned
// as-is.
func (r Resolver) Pixels(s string) (int, error) {
	m := valueUnitRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("units: %q cannot be parsed as a length", s)
	}
	valStr, unit := m[1], m[2]
	v, err := strconv.ParseFloat(normalizeDecimal(valStr), 64)
	if err != nil {
		return 0, fmt.Errorf("units: %q cannot be parsed as a length: %w", s, err)
	}
	switch unit {
	case "px", "PX", "":
		return int(v), nil
	case "cm":
		return int(v * r.ppmmMean * 10), nil
	case "mm":
		return int(v * r.ppmmMean), nil
	case "in":
		return int(v * r.ppmmMean * 25.4), nil
	default:
		return 0, fmt.Errorf("units: unknown unit %q in %q", unit, s)
	}
}

// Millimeters parses s as "<number><unit>" with unit in {cm, mm, in},
// returning a millimeter length. Unlike Pixels it does not accept px or a
// bare number.
func (r Resolver) Millimeters(s string) (float64, error) {
	m := valueUnitRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("units: %q cannot be parsed as a length", s)
	}
	valStr, unit := m[1], m[2]
	v, err := strconv.ParseFloat(normalizeDecimal(valStr), 64)
	if err != nil {
		return 0, fmt.Errorf("units: %q cannot be parsed as a length: %w", s, err)
	}
	switch unit {
	case "in":
		return v * 25.4, nil
	case "cm":
		return v * 10, nil
	case "mm":
		return v, nil
	default:
		return 0, fmt.Errorf("units: unknown unit %q in %q", unit, s)
	}
}

func normalizeDecimal(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out[i] = '.'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
