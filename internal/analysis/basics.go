package analysis

import (
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// DefaultBasics are the essential expenses a Needs list is expected to mention.
var DefaultBasics = []string{"vivienda", "alimentacion", "transporte", "seguros"}

// MissingBasics returns the basics that no Needs label mentions, in the
// order given.
func MissingBasics(doc core.Document, basics []string) []string {
	var missing []string
	for _, b := range basics {
		found := false
		for _, e := range doc.Expenses.Needs {
			if core.LabelMatches(e.Label, []string{b}) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, b)
		}
	}
	return missing
}
