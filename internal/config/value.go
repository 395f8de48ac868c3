package config

import (
	"strconv"
	"strings"
)

// guess coerces a raw config string into a bool, int64, float64 or string,
// matching the coercion rules in the configuration file format: an exact
// (case-insensitive) on/off/true/false/0/1 token becomes a bool BEFORE any
// numeric parsing is attempted, so the literal values "0" and "1" become
// booleans rather than integers. This mirrors the original config loader's
// coercion order and is preserved even though it is a little surprising.
func guess(raw string) any {
	if raw == "" {
		return nil
	}
	switch strings.ToLower(raw) {
	case "off", "false":
		return false
	case "on", "true":
		return true
	case "0":
		return false
	case "1":
		return true
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		if v, err := strconv.ParseInt(raw[2:], 16, 64); err == nil {
			return v
		}
	}
	if strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B") {
		if v, err := strconv.ParseInt(raw[2:], 2, 64); err == nil {
			return v
		}
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}

// Value wraps a coerced configuration value with typed accessors that fall
// back to a caller-supplied default when the underlying type doesn't match
// or the value was never set. raw is kept alongside the coerced v so that
// String() can hand back the user's actual text even when guess() coerced
// it to a bool or number for the other accessors.
type Value struct {
	v   any
	raw string
}

func newValue(raw string) Value { return Value{v: guess(raw), raw: raw} }

// Bool returns the value as a bool, or fallback if it isn't one.
func (val Value) Bool(fallback bool) bool {
	if b, ok := val.v.(bool); ok {
		return b
	}
	return fallback
}

// Int returns the value as an int, coercing a whole-numbered float, or
// fallback otherwise.
func (val Value) Int(fallback int) int {
	switch x := val.v.(type) {
	case int64:
		return int(x)
	case float64:
		if x == float64(int64(x)) {
			return int(x)
		}
	}
	return fallback
}

// Float returns the value as a float64, coercing an integer, or fallback
// otherwise.
func (val Value) Float(fallback float64) float64 {
	switch x := val.v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return fallback
}

// String returns the value's original textual form, or fallback if the
// value was never set (nil). It returns raw regardless of how guess()
// coerced v, so a config override that merely looks like a bool or number
// (e.g. "scrollAmountFormula = 5", "dragDist = 50") is still returned
// as-is instead of being silently replaced by fallback.
func (val Value) String(fallback string) string {
	if val.v == nil {
		return fallback
	}
	return val.raw
}

// IsSet reports whether the value is present (not the zero Value).
func (val Value) IsSet() bool { return val.v != nil }
