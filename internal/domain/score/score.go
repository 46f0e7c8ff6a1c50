// Package score holds compatibility scoring results.
package score

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
)

// Verdict is the outcome of the safety phase.
type Verdict string

// Safety verdicts.
const (
	VerdictPass     Verdict = "pass"
	VerdictExcluded Verdict = "excluded"
)

// Reason explains an exclusion.
type Reason string

// Exclusion reasons.
const (
	ReasonAllergenUnverified  Reason = "allergen_unverified"
	ReasonAllergenPresent     Reason = "allergen_present"
	ReasonRestrictionConflict Reason = "restriction_conflict"
)

// Safety is the safety verdict plus, when excluded, why and for what.
type Safety struct {
	Verdict Verdict `json:"verdict"`
	Reason  Reason  `json:"reason,omitempty"`
	Subject string  `json:"subject,omitempty"` // allergen or restriction kind
}

// Passed is the verdict for a candidate that cleared the safety phase.
var Passed = Safety{Verdict: VerdictPass}

// Breakdown is the per-criterion score, each term in [0,1].
type Breakdown struct {
	Dietary   float64 `json:"dietary"`
	Cuisine   float64 `json:"cuisine"`
	Proximity float64 `json:"proximity"`
	Price     float64 `json:"price"`
}

// Weights are the per-criterion multipliers.
type Weights struct {
	Dietary   float64
	Cuisine   float64
	Proximity float64
	Price     float64
}

// DefaultWeights is the stock tuning.
var DefaultWeights = Weights{Dietary: 0.40, Cuisine: 0.25, Proximity: 0.20, Price: 0.15}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"dietary": w.Dietary, "cuisine": w.Cuisine, "proximity": w.Proximity, "price": w.Price,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %f", name, v)
		}
	}
	if w.sum() <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	return nil
}

func (w Weights) sum() float64 { return w.Dietary + w.Cuisine + w.Proximity + w.Price }

// Normalized scales the weights to sum to 1. Invalid weights fall back to DefaultWeights.
func (w Weights) Normalized() Weights {
	if w.Validate() != nil {
		return DefaultWeights
	}
	s := w.sum()
	return Weights{Dietary: w.Dietary / s, Cuisine: w.Cuisine / s, Proximity: w.Proximity / s, Price: w.Price / s}
}

// Apply computes the weighted sum, clamped to [0,1].
func (w Weights) Apply(b Breakdown) float64 {
	v := w.Dietary*b.Dietary + w.Cuisine*b.Cuisine + w.Proximity*b.Proximity + w.Price*b.Price
	return Clamp01(v)
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Scored is a candidate with its compatibility score.
type Scored struct {
	Candidate      candidate.Candidate `json:"candidate"`
	Score          float64             `json:"score"`
	Breakdown      Breakdown           `json:"breakdown"`
	DistanceMeters float64             `json:"distance_meters"`
	Safety         Safety              `json:"safety"`
}

// Excluded reports whether the safety phase rejected the candidate.
func (s *Scored) Excluded() bool { return s.Safety.Verdict == VerdictExcluded }

// TieBreak orders equal scores: higher rating, then shorter distance, then id.
// Returns a negative number when a sorts before b.
func TieBreak(a, b *Scored) int {
	if c := cmp.Compare(b.Candidate.Rating, a.Candidate.Rating); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
		return c
	}
	return strings.Compare(a.Candidate.ID, b.Candidate.ID)
}

// Compare orders by score descending, then TieBreak.
func Compare(a, b *Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return TieBreak(a, b)
}
