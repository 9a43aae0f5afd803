package core

import "testing"

func TestFoldLabel(t *testing.T) {
	cases := map[string]string{
		"Alimentación":     "alimentacion",
		"  SALIDAS  ":      "salidas",
		"Ahorro/Inversión": "ahorro/inversion",
	}
	for in, want := range cases {
		if got := FoldLabel(in); got != want {
			t.Fatalf("FoldLabel(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestLabelMatches(t *testing.T) {
	keywords := []string{"entretenimiento", "compras", "salidas"}
	cases := []struct {
		label string
		ok    bool
	}{
		{"Compras", true},
		{"compras de ropa", true},
		{"Salidas con amigos", true},
		{"Alquiler", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := LabelMatches(tc.label, keywords); got != tc.ok {
			t.Fatalf("LabelMatches(%q)=%v, want %v", tc.label, got, tc.ok)
		}
	}
}
