package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

// MaxCuisines is the maximum number of cuisines in one filter.
const MaxCuisines = 16

// Kind names a non-safety filter that progressive relaxation may loosen.
type Kind string

// Relaxable filter kinds.
const (
	Cuisine Kind = "cuisine"
	Price   Kind = "price"
	Radius  Kind = "radius"
)

// RelaxationOrder is the fixed precedence in which filters are loosened.
var RelaxationOrder = []Kind{Cuisine, Price, Radius}

// Raw is the user's explicit filter set. Safety never lives here.
type Raw struct {
	cuisines []string
	maxPrice int
	priceSet bool
	openNow  bool
}

// None is the empty filter set. The zero Raw is equivalent.
var None = Raw{}

// New validates and normalizes a filter set. Cuisines are lowercased,
// de-duplicated and sorted so equivalent inputs canonicalize identically.
// maxPrice < 0 disables the price filter.
func New(cuisines []string, maxPrice int, openNow bool) (Raw, error) {
	if len(cuisines) > MaxCuisines {
		return Raw{}, fmt.Errorf("too many cuisines (max %d)", MaxCuisines)
	}
	if maxPrice > profile.MaxPriceLevel {
		return Raw{}, fmt.Errorf("max price level must be <= %d, got %d", profile.MaxPriceLevel, maxPrice)
	}
	priceSet := maxPrice >= 0
	if !priceSet {
		maxPrice = 0
	}

	seen := make(map[string]struct{}, len(cuisines))
	norm := make([]string, 0, len(cuisines))
	for _, c := range cuisines {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		norm = append(norm, c)
	}
	sort.Strings(norm)

	return Raw{cuisines: norm, maxPrice: maxPrice, priceSet: priceSet, openNow: openNow}, nil
}

// Cuisines returns the requested cuisines (sorted, lowercase).
func (r Raw) Cuisines() []string { return r.cuisines }

// MaxPrice returns the price ceiling and whether the price filter is active.
func (r Raw) MaxPrice() (int, bool) { return r.maxPrice, r.priceSet }

// OpenNow reports whether only currently open places are wanted.
func (r Raw) OpenNow() bool { return r.openNow }

// Without returns a copy with the given filter kind removed.
// Radius is not part of the raw filter set and is a no-op here.
func (r Raw) Without(k Kind) Raw {
	switch k {
	case Cuisine:
		r.cuisines = nil
	case Price:
		r.maxPrice = 0
		r.priceSet = false
	case Radius:
	}
	return r
}

// Canonical renders the filter set as a stable string for cache keys.
func (r Raw) Canonical() string {
	var b strings.Builder
	b.WriteString("c=")
	b.WriteString(strings.Join(r.cuisines, ","))
	b.WriteString(";p=")
	if r.priceSet {
		b.WriteString(strconv.Itoa(r.maxPrice))
	} else {
		b.WriteString("-")
	}
	b.WriteString(";o=")
	b.WriteString(strconv.FormatBool(r.openNow))
	return b.String()
}

// Match reports whether c passes every active filter. Candidates without a
// price level pass the price filter; candidates without open-now data fail
// the open-now filter.
func (r Raw) Match(c *candidate.Candidate) bool {
	if len(r.cuisines) > 0 {
		ok := false
		for _, want := range r.cuisines {
			if c.ServesCuisine(want) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if r.priceSet && c.HasPrice() && c.PriceLevel > r.maxPrice {
		return false
	}
	if r.openNow && (c.OpenNow == nil || !*c.OpenNow) {
		return false
	}
	return true
}
