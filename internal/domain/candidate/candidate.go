// Package candidate holds raw restaurant results from the places provider.
package candidate

import (
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

// Support is the tri-state answer for a dietary restriction.
type Support string

// Dietary support states.
const (
	SupportUnknown      Support = ""
	SupportAccommodates Support = "accommodates"
	SupportConflicts    Support = "conflicts"
)

// Safety is the tri-state answer for an allergen.
type Safety string

// Allergen safety states. Only SafetyVerified satisfies a severe allergen.
const (
	SafetyUnknown  Safety = ""
	SafetyVerified Safety = "verified_safe"
	SafetyContains Safety = "contains"
)

// Source names where an annotation came from.
type Source string

// Annotation sources.
const (
	SourceProvider  Source = "provider"
	SourceCommunity Source = "community"
)

// AllergenNote is a per-allergen safety annotation with provenance.
type AllergenNote struct {
	Safety Safety `json:"safety"`
	Source Source `json:"source,omitempty"`
}

// UnknownPrice marks a candidate the provider did not price.
const UnknownPrice = -1

// Candidate is one restaurant returned by the provider.
type Candidate struct {
	ID          string                                `json:"id"`
	Name        string                                `json:"name"`
	Location    geo.Point                             `json:"location"`
	PriceLevel  int                                   `json:"price_level"` // 0..4, UnknownPrice if absent
	Cuisines    []string                              `json:"cuisines"`
	Rating      float64                               `json:"rating"` // 0..5
	RatingCount int                                   `json:"rating_count"`
	OpenNow     *bool                                 `json:"open_now,omitempty"`
	Dietary     map[profile.RestrictionKind]Support   `json:"dietary,omitempty"`
	Allergens   map[profile.AllergenKind]AllergenNote `json:"allergens,omitempty"`
}

// HasPrice reports whether the provider returned a price level.
func (c *Candidate) HasPrice() bool {
	return c.PriceLevel != UnknownPrice
}

// DietarySupport returns the annotation for kind (unknown when absent).
func (c *Candidate) DietarySupport(kind profile.RestrictionKind) Support {
	if c.Dietary == nil {
		return SupportUnknown
	}
	return c.Dietary[kind]
}

// AllergenSafety returns the annotation for kind (unknown when absent).
func (c *Candidate) AllergenSafety(kind profile.AllergenKind) Safety {
	if c.Allergens == nil {
		return SafetyUnknown
	}
	return c.Allergens[kind].Safety
}

// ServesCuisine reports whether any of the candidate's cuisine tags equals cuisine.
func (c *Candidate) ServesCuisine(cuisine string) bool {
	for _, t := range c.Cuisines {
		if t == cuisine {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so annotations can be merged without touching
// cached candidates shared between requests.
func (c Candidate) Clone() Candidate {
	out := c
	if c.Cuisines != nil {
		out.Cuisines = append([]string(nil), c.Cuisines...)
	}
	if c.OpenNow != nil {
		v := *c.OpenNow
		out.OpenNow = &v
	}
	if c.Dietary != nil {
		out.Dietary = make(map[profile.RestrictionKind]Support, len(c.Dietary))
		for k, v := range c.Dietary {
			out.Dietary[k] = v
		}
	}
	if c.Allergens != nil {
		out.Allergens = make(map[profile.AllergenKind]AllergenNote, len(c.Allergens))
		for k, v := range c.Allergens {
			out.Allergens[k] = v
		}
	}
	return out
}

// Annotations is community-sourced dietary and allergen data for one place.
type Annotations struct {
	Dietary   map[profile.RestrictionKind]Support
	Allergens map[profile.AllergenKind]Safety
}

// Merge overlays community annotations onto a copy of c. A community
// "contains" always wins; a community "verified" never downgrades a provider
// "contains".
func (c Candidate) Merge(a Annotations) Candidate {
	out := c.Clone()
	if len(a.Dietary) > 0 && out.Dietary == nil {
		out.Dietary = make(map[profile.RestrictionKind]Support, len(a.Dietary))
	}
	for k, v := range a.Dietary {
		if v == SupportUnknown {
			continue
		}
		if out.Dietary[k] == SupportConflicts {
			continue
		}
		out.Dietary[k] = v
	}
	if len(a.Allergens) > 0 && out.Allergens == nil {
		out.Allergens = make(map[profile.AllergenKind]AllergenNote, len(a.Allergens))
	}
	for k, v := range a.Allergens {
		if v == SafetyUnknown {
			continue
		}
		if out.Allergens[k].Safety == SafetyContains && v != SafetyContains {
			continue
		}
		out.Allergens[k] = AllergenNote{Safety: v, Source: SourceCommunity}
	}
	return out
}
