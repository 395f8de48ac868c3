package units

import "testing"

func TestPixels(t *testing.T) {
	r, err := NewResolver(160, 90, 1920, 1080)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	cases := []struct {
		in   string
		want int
	}{
		{"30px", 30},
		{"30", 30},
		{"1cm", int(1 * r.PPMMMean() * 10)},
		{"10mm", int(10 * r.PPMMMean())},
	}
	for _, c := range cases {
		got, err := r.Pixels(c.in)
		if err != nil {
			t.Errorf("Pixels(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Pixels(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPixelsInvalid(t *testing.T) {
	r, _ := NewResolver(160, 90, 1920, 1080)
	if _, err := r.Pixels("nonsense-unit"); err == nil {
		t.Error("expected an error for an unparseable length")
	}
	if _, err := r.Pixels("5furlongs"); err == nil {
		t.Error("expected an error for an unknown unit")
	}
}

func TestMillimeters(t *testing.T) {
	r, _ := NewResolver(160, 90, 1920, 1080)
	cases := []struct {
		in   string
		want float64
	}{
		{"16cm", 160},
		{"9cm", 90},
		{"1in", 25.4},
		{"5mm", 5},
	}
	for _, c := range cases {
		got, err := r.Millimeters(c.in)
		if err != nil {
			t.Errorf("Millimeters(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Millimeters(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewResolverRejectsNonPositive(t *testing.T) {
	if _, err := NewResolver(0, 90, 1920, 1080); err == nil {
		t.Error("expected an error for a zero device width")
	}
	if _, err := NewResolver(160, 90, 0, 1080); err == nil {
		t.Error("expected an error for a zero screen width")
	}
}
