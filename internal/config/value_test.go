package config

import "testing"

func TestGuessCoercion(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"off", false},
		{"ON", true},
		{"0", false},
		{"1", true},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"0x1F", int64(31)},
		{"0b101", int64(5)},
		{"3.14", 3.14},
		{"", nil},
		{"hello", "hello"},
	}
	for _, c := range cases {
		got := guess(c.raw)
		if got != c.want {
			t.Errorf("guess(%q) = %#v, want %#v", c.raw, got, c.want)
		}
	}
}

func TestValueAccessors(t *testing.T) {
	v := newValue("30px")
	if v.IsSet() != true {
		t.Error("IsSet() = false, want true for a non-empty value")
	}
	if got := v.String("fallback"); got != "30px" {
		t.Errorf("String() = %q, want %q", got, "30px")
	}

	b := newValue("on")
	if !b.Bool(false) {
		t.Error("Bool() = false, want true")
	}

	i := newValue("8")
	if got := i.Int(0); got != 8 {
		t.Errorf("Int() = %d, want 8", got)
	}

	f := newValue("2.5")
	if got := f.Float(0); got != 2.5 {
		t.Errorf("Float() = %v, want 2.5", got)
	}

	var zero Value
	if zero.IsSet() {
		t.Error("zero Value reports IsSet() = true")
	}
	if got := zero.String("fallback"); got != "fallback" {
		t.Errorf("zero Value.String(fallback) = %q, want fallback", got)
	}
}

// TestStringIgnoresCoercedType checks that String() returns the user's raw
// text even when guess() coerced the value to a bool or a number for the
// other accessors, instead of falling back to the caller's default.
func TestStringIgnoresCoercedType(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"5", "5"},
		{"1", "1"},
		{"0", "0"},
		{"on", "on"},
		{"0x1F", "0x1F"},
		{"3.14", "3.14"},
	}
	for _, c := range cases {
		v := newValue(c.raw)
		if got := v.String("fallback"); got != c.want {
			t.Errorf("newValue(%q).String(fallback) = %q, want %q", c.raw, got, c.want)
		}
	}
}
