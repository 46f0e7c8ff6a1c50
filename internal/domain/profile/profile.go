// Package profile holds the user's dietary profile. The profile is owned by an
// external collaborator and is read-only inside discovery.
package profile

import (
	"fmt"
	"strings"
)

// RestrictionKind is a declared dietary rule.
type RestrictionKind string

// Known restriction kinds.
const (
	Vegetarian  RestrictionKind = "vegetarian"
	Vegan       RestrictionKind = "vegan"
	GlutenFree  RestrictionKind = "gluten_free"
	DairyFree   RestrictionKind = "dairy_free"
	Halal       RestrictionKind = "halal"
	Kosher      RestrictionKind = "kosher"
	Pescatarian RestrictionKind = "pescatarian"
)

// RestrictionSeverity controls whether a restriction can exclude a candidate.
type RestrictionSeverity string

// Restriction severities.
const (
	Informational RestrictionSeverity = "informational"
	Strict        RestrictionSeverity = "strict"
)

// AllergenKind is a substance the user must avoid.
type AllergenKind string

// Known allergen kinds.
const (
	Peanut    AllergenKind = "peanut"
	TreeNut   AllergenKind = "tree_nut"
	Shellfish AllergenKind = "shellfish"
	Fish      AllergenKind = "fish"
	Egg       AllergenKind = "egg"
	Milk      AllergenKind = "milk"
	Soy       AllergenKind = "soy"
	Wheat     AllergenKind = "wheat"
	Sesame    AllergenKind = "sesame"
)

// AllergenSeverity controls whether an allergen drives the safety filter.
type AllergenSeverity string

// Allergen severities.
const (
	Mild   AllergenSeverity = "mild"
	Severe AllergenSeverity = "severe"
)

// Restriction is a dietary rule with a severity.
type Restriction struct {
	Kind     RestrictionKind     `json:"kind"`
	Severity RestrictionSeverity `json:"severity"`
}

// Allergen is an allergy with a severity.
type Allergen struct {
	Kind     AllergenKind     `json:"kind"`
	Severity AllergenSeverity `json:"severity"`
}

// MaxPriceLevel is the highest provider price level (0 = free .. 4 = very expensive).
const MaxPriceLevel = 4

// PriceBand is an inclusive range of price levels.
type PriceBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether level falls inside the band.
func (b PriceBand) Contains(level int) bool {
	return level >= b.Min && level <= b.Max
}

// Distance returns how many levels level lies outside the band (0 when inside).
func (b PriceBand) Distance(level int) int {
	switch {
	case level < b.Min:
		return b.Min - level
	case level > b.Max:
		return level - b.Max
	default:
		return 0
	}
}

// AnyPrice accepts every price level.
var AnyPrice = PriceBand{Min: 0, Max: MaxPriceLevel}

// Profile is a user's dietary profile.
type Profile struct {
	UserID       string             `json:"user_id"`
	Restrictions []Restriction      `json:"restrictions"`
	Allergens    []Allergen         `json:"allergens"`
	Cuisines     map[string]float64 `json:"cuisines"` // cuisine -> affinity in [-1,1]
	// PriceBand is nil when the user accepts any price. {0,0} means free only.
	PriceBand *PriceBand `json:"price_band,omitempty"`
}

// Band returns the price band, AnyPrice when unset.
func (p *Profile) Band() PriceBand {
	if p.PriceBand == nil {
		return AnyPrice
	}
	return *p.PriceBand
}

// Validate checks enum values and ranges. A profile that fails validation is
// never used for scoring, since a dropped severe allergen would be unsafe.
func (p *Profile) Validate() error {
	for _, r := range p.Restrictions {
		if r.Kind == "" {
			return fmt.Errorf("restriction kind is required")
		}
		if r.Severity != Informational && r.Severity != Strict {
			return fmt.Errorf("restriction %q: invalid severity %q", r.Kind, r.Severity)
		}
	}
	for _, a := range p.Allergens {
		if a.Kind == "" {
			return fmt.Errorf("allergen kind is required")
		}
		if a.Severity != Mild && a.Severity != Severe {
			return fmt.Errorf("allergen %q: invalid severity %q", a.Kind, a.Severity)
		}
	}
	for c, aff := range p.Cuisines {
		if aff < -1 || aff > 1 {
			return fmt.Errorf("cuisine %q: affinity %f out of [-1,1]", c, aff)
		}
	}
	if b := p.PriceBand; b != nil && (b.Min < 0 || b.Max > MaxPriceLevel || b.Min > b.Max) {
		return fmt.Errorf("invalid price band [%d,%d]", b.Min, b.Max)
	}
	return nil
}

// Normalize lowercases cuisine keys.
func (p *Profile) Normalize() {
	if len(p.Cuisines) > 0 {
		norm := make(map[string]float64, len(p.Cuisines))
		for c, aff := range p.Cuisines {
			norm[strings.ToLower(strings.TrimSpace(c))] = aff
		}
		p.Cuisines = norm
	}
}

// SevereAllergens returns the allergens that drive the safety filter.
func (p *Profile) SevereAllergens() []AllergenKind {
	var out []AllergenKind
	for _, a := range p.Allergens {
		if a.Severity == Severe {
			out = append(out, a.Kind)
		}
	}
	return out
}

// StrictRestrictions returns the restrictions that can exclude a candidate.
func (p *Profile) StrictRestrictions() []RestrictionKind {
	var out []RestrictionKind
	for _, r := range p.Restrictions {
		if r.Severity == Strict {
			out = append(out, r.Kind)
		}
	}
	return out
}
