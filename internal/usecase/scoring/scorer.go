// Package scoring computes the safety verdict and compatibility score of
// each candidate against a dietary profile.
package scoring

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
)

// Term values for unknown or partial evidence.
const (
	neutral              = 0.5
	restrictionUnknown   = 0.5
	mildAllergenUnknown  = 0.6
	mildAllergenContains = 0.2
	priceLevelPenalty    = 1.0 / 3
)

// Frame is the spatial context a candidate is scored in.
type Frame struct {
	Origin       geo.Point
	RadiusMeters int
}

// Scorer is stateless after construction and safe for concurrent use.
type Scorer struct {
	weights score.Weights
}

// New creates a scorer. Weights are normalized to sum to 1.
func New(w score.Weights) *Scorer {
	return &Scorer{weights: w.Normalized()}
}

// Weights returns the normalized weights in use.
func (s *Scorer) Weights() score.Weights { return s.weights }

// Score runs the safety phase and, for passing candidates, the weighted phase.
func (s *Scorer) Score(c candidate.Candidate, p *profile.Profile, f Frame) score.Scored {
	out := score.Scored{
		Candidate:      c,
		DistanceMeters: f.Origin.DistanceTo(c.Location),
		Safety:         Safety(&c, p),
	}
	if out.Excluded() {
		return out
	}

	out.Breakdown = score.Breakdown{
		Dietary:   dietaryMatch(&c, p),
		Cuisine:   cuisineMatch(&c, p),
		Proximity: proximityMatch(out.DistanceMeters, f.RadiusMeters),
		Price:     priceMatch(&c, p),
	}
	out.Score = s.weights.Apply(out.Breakdown)
	return out
}

// ScoreAll scores every candidate in parallel. Output order matches input order.
func (s *Scorer) ScoreAll(
	ctx context.Context,
	cands []candidate.Candidate,
	p *profile.Profile,
	f Frame,
) ([]score.Scored, error) {
	out := make([]score.Scored, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.Score(cands[i], p, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	return out, nil
}

// Safety is the zero-tolerance phase. A severe allergen passes only with
// verified-safe data; a strict restriction fails only on an explicit conflict.
func Safety(c *candidate.Candidate, p *profile.Profile) score.Safety {
	for _, a := range p.SevereAllergens() {
		switch c.AllergenSafety(a) {
		case candidate.SafetyVerified:
			continue
		case candidate.SafetyContains:
			return score.Safety{Verdict: score.VerdictExcluded, Reason: score.ReasonAllergenPresent, Subject: string(a)}
		default:
			return score.Safety{Verdict: score.VerdictExcluded, Reason: score.ReasonAllergenUnverified, Subject: string(a)}
		}
	}
	for _, r := range p.StrictRestrictions() {
		if c.DietarySupport(r) == candidate.SupportConflicts {
			return score.Safety{Verdict: score.VerdictExcluded, Reason: score.ReasonRestrictionConflict, Subject: string(r)}
		}
	}
	return score.Passed
}

func dietaryMatch(c *candidate.Candidate, p *profile.Profile) float64 {
	var sum float64
	var n int
	for _, r := range p.Restrictions {
		switch c.DietarySupport(r.Kind) {
		case candidate.SupportAccommodates:
			sum++
		case candidate.SupportUnknown:
			sum += restrictionUnknown
		}
		n++
	}
	for _, a := range p.Allergens {
		switch c.AllergenSafety(a.Kind) {
		case candidate.SafetyVerified:
			sum++
		case candidate.SafetyContains:
			sum += mildAllergenContains
		default:
			sum += mildAllergenUnknown
		}
		n++
	}
	if n == 0 {
		return 1
	}
	return score.Clamp01(sum / float64(n))
}

// cuisineMatch maps the best matching affinity from [-1,1] onto [0,1].
func cuisineMatch(c *candidate.Candidate, p *profile.Profile) float64 {
	if len(p.Cuisines) == 0 {
		return neutral
	}
	best, matched := -1.0, false
	for _, tag := range c.Cuisines {
		if aff, ok := p.Cuisines[tag]; ok && aff > best {
			best, matched = aff, true
		}
	}
	if !matched {
		return neutral
	}
	return score.Clamp01((best + 1) / 2)
}

func proximityMatch(distance float64, radius int) float64 {
	if radius <= 0 {
		return 0
	}
	return score.Clamp01(1 - distance/float64(radius))
}

func priceMatch(c *candidate.Candidate, p *profile.Profile) float64 {
	if !c.HasPrice() {
		return neutral
	}
	d := p.Band().Distance(c.PriceLevel)
	return score.Clamp01(1 - float64(d)*priceLevelPenalty)
}
