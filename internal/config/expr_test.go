package config

import "testing"

func TestFormulaEval(t *testing.T) {
	cases := []struct {
		src  string
		vars map[string]float64
		want int
	}{
		{"1", nil, 1},
		{"l/10", map[string]float64{"l": 40}, 4},
		{"l/15", map[string]float64{"l": 40}, 2},
		{"(l+k)*2", map[string]float64{"l": 3, "k": 4}, 14},
		{"-l", map[string]float64{"l": 5}, -5},
		{"p/0", map[string]float64{"p": 5}, 0},
	}
	for _, c := range cases {
		f, err := ParseFormula(c.src)
		if err != nil {
			t.Fatalf("ParseFormula(%q): %v", c.src, err)
		}
		if got := f.Eval(c.vars); got != c.want {
			t.Errorf("Eval(%q, %v) = %d, want %d", c.src, c.vars, got, c.want)
		}
	}
}

func TestFormulaRejectsUnknownVariable(t *testing.T) {
	if _, err := ParseFormula("x+1"); err == nil {
		t.Error("expected an error for an unknown variable")
	}
}

func TestFormulaRejectsTrailingGarbage(t *testing.T) {
	if _, err := ParseFormula("1 + 2 3"); err == nil {
		t.Error("expected an error for trailing input")
	}
}

func TestFormulaString(t *testing.T) {
	f, err := ParseFormula("l/10")
	if err != nil {
		t.Fatalf("ParseFormula: %v", err)
	}
	if f.String() != "l/10" {
		t.Errorf("String() = %q, want %q", f.String(), "l/10")
	}
}
