package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the closed set of expense buckets of the 50-30-20 rule.
type Category int

const (
	Needs Category = iota
	Wants
	Savings
)

// Categories lists every category in display order.
var Categories = []Category{Needs, Wants, Savings}

type categoryInfo struct {
	name  string // english identifier used by the CLI and logs
	key   string // persisted JSON key
	label string // display label
	title string // section title used by exports
	ideal int64  // 50-30-20 ideal percentage
	color string // chart color
}

var categoryTable = map[Category]categoryInfo{
	Needs:   {name: "needs", key: "necesidades", label: "Necesidades", title: "Necesidades", ideal: 50, color: "#37B8AF"},
	Wants:   {name: "wants", key: "deseos", label: "Deseos", title: "Deseos", ideal: 30, color: "#0F4C5C"},
	Savings: {name: "savings", key: "ahorroInversion", label: "Ahorro/Inversión", title: "Ahorro e Inversión", ideal: 20, color: "#E8F4F8"},
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) String() string {
	if info, ok := categoryTable[c]; ok {
		return info.name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Key returns the identifier used in the persisted document.
func (c Category) Key() string { return categoryTable[c].key }

// Label returns the human-readable name, e.g. "Necesidades".
func (c Category) Label() string { return categoryTable[c].label }

// Title returns the heading used by the CSV and PDF sections.
func (c Category) Title() string { return categoryTable[c].title }

// Color returns the chart color associated with the category.
func (c Category) Color() string { return categoryTable[c].color }

// IdealPct returns the fixed 50-30-20 target for the category.
func (c Category) IdealPct() decimal.Decimal {
	return decimal.NewFromInt(categoryTable[c].ideal)
}

// ParseCategory accepts the english name, the persisted key or the label,
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		info := categoryTable[c]
		if s == info.name || s == strings.ToLower(info.key) || s == strings.ToLower(info.label) {
			return c, nil
		}
	}
	switch s {
	case "need":
		return Needs, nil
	case "want":
		return Wants, nil
	case "saving", "ahorro", "inversion", "inversión":
		return Savings, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
