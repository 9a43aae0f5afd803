// Package advice turns derived budget figures into a prioritised,
// deduplicated list of recommendations.
package advice

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
)

// Rules is the single threshold table shared by the main and the adjustment
// channels. Zero values fall back to the defaults.
type Rules struct {
	// SavingsFloor is the savings percentage under which a Red savings
	// category raises an alert.
	SavingsFloor float64 `toml:"savings_floor"`
	// DiscretionaryShare is the share of income, in percent, that matching
	// wants may reach before the 24-hour rule is suggested.
	DiscretionaryShare    float64  `toml:"discretionary_share"`
	DiscretionaryKeywords []string `toml:"discretionary_keywords"`

	AdjustNeedsMax   float64 `toml:"adjust_needs_max"`
	AdjustWantsMax   float64 `toml:"adjust_wants_max"`
	AdjustSavingsMin float64 `toml:"adjust_savings_min"`
	// AdjustTolerance is the band around the ideal that earns the
	// adjustment congratulation.
	AdjustTolerance float64 `toml:"adjust_tolerance"`

	Basics []string `toml:"basics"`
}

// DefaultRules returns the stock thresholds.
func DefaultRules() Rules {
	return Rules{
		SavingsFloor:       15,
		DiscretionaryShare: 25,
		DiscretionaryKeywords: []string{
			"entretenimiento", "compras", "salidas", "ocio",
			"entertainment", "shopping", "outings",
		},
		AdjustNeedsMax:   60,
		AdjustWantsMax:   40,
		AdjustSavingsMin: 15,
		AdjustTolerance:  5,
		Basics:           append([]string(nil), analysis.DefaultBasics...),
	}
}

// WithDefaults fills every unset field from DefaultRules.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.SavingsFloor == 0 {
		r.SavingsFloor = d.SavingsFloor
	}
	if r.DiscretionaryShare == 0 {
		r.DiscretionaryShare = d.DiscretionaryShare
	}
	if len(r.DiscretionaryKeywords) == 0 {
		r.DiscretionaryKeywords = d.DiscretionaryKeywords
	}
	if r.AdjustNeedsMax == 0 {
		r.AdjustNeedsMax = d.AdjustNeedsMax
	}
	if r.AdjustWantsMax == 0 {
		r.AdjustWantsMax = d.AdjustWantsMax
	}
	if r.AdjustSavingsMin == 0 {
		r.AdjustSavingsMin = d.AdjustSavingsMin
	}
	if r.AdjustTolerance == 0 {
		r.AdjustTolerance = d.AdjustTolerance
	}
	if len(r.Basics) == 0 {
		r.Basics = d.Basics
	}
	return r
}

// Validate rejects thresholds that cannot be meaningful percentages.
func (r Rules) Validate() error {
	for name, v := range map[string]float64{
		"savings_floor":       r.SavingsFloor,
		"discretionary_share": r.DiscretionaryShare,
		"adjust_needs_max":    r.AdjustNeedsMax,
		"adjust_wants_max":    r.AdjustWantsMax,
		"adjust_savings_min":  r.AdjustSavingsMin,
		"adjust_tolerance":    r.AdjustTolerance,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("rule %s must be between 0 and 100, got %v", name, v)
		}
	}
	return nil
}

// LoadRules reads a TOML rules file. An empty path or a missing file yields
// the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultRules(), nil
	}

	var r Rules
	if _, err := toml.DecodeFile(path, &r); err != nil {
		return Rules{}, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	r = r.WithDefaults()
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return r, nil
}

func pct(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
