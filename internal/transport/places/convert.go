package places

import (
	"strings"

	placesapi "google.golang.org/api/places/v1"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

var priceLevels = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// standaloneCuisines are place types that are cuisine tags without the _restaurant suffix.
var standaloneCuisines = map[string]bool{
	"cafe":           true,
	"bakery":         true,
	"bar":            true,
	"coffee_shop":    true,
	"ice_cream_shop": true,
	"sandwich_shop":  true,
}

// toCandidate converts one place. Places without an id or location are dropped.
func toCandidate(p *placesapi.GoogleMapsPlacesV1Place) (candidate.Candidate, bool) {
	if p == nil || p.Id == "" || p.Location == nil {
		return candidate.Candidate{}, false
	}

	c := candidate.Candidate{
		ID:          p.Id,
		Location:    geo.Point{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
		PriceLevel:  candidate.UnknownPrice,
		Rating:      p.Rating,
		RatingCount: int(p.UserRatingCount),
	}
	if p.DisplayName != nil {
		c.Name = p.DisplayName.Text
	}
	if lvl, ok := priceLevels[p.PriceLevel]; ok {
		c.PriceLevel = lvl
	}
	if p.CurrentOpeningHours != nil {
		open := p.CurrentOpeningHours.OpenNow
		c.OpenNow = &open
	}

	dietary := map[profile.RestrictionKind]candidate.Support{}
	// false is indistinguishable from absent in the API, so only true is evidence.
	if p.ServesVegetarianFood {
		dietary[profile.Vegetarian] = candidate.SupportAccommodates
	}
	for _, t := range p.Types {
		switch t {
		case "vegan_restaurant":
			dietary[profile.Vegan] = candidate.SupportAccommodates
			dietary[profile.Vegetarian] = candidate.SupportAccommodates
		case "vegetarian_restaurant":
			dietary[profile.Vegetarian] = candidate.SupportAccommodates
		}
		if cuisine, ok := cuisineOf(t); ok {
			c.Cuisines = append(c.Cuisines, cuisine)
		}
	}
	if len(dietary) > 0 {
		c.Dietary = dietary
	}
	return c, true
}

func cuisineOf(placeType string) (string, bool) {
	if standaloneCuisines[placeType] {
		return placeType, true
	}
	if cuisine, ok := strings.CutSuffix(placeType, "_restaurant"); ok && cuisine != "" {
		return cuisine, true
	}
	return "", false
}
