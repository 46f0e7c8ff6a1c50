package ranking

import (
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
	"github.com/kailas-cloud/dinewise/internal/domain/score"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

// SelectStrategy picks the contextual strategy. A declared mood wins over time of day.
func SelectStrategy(c request.Context) domrank.Strategy {
	switch c.Mood {
	case request.MoodQuickBite:
		return domrank.StrategyQuickBite
	case request.MoodTreat:
		return domrank.StrategyTreat
	case request.MoodBudgetConscious:
		return domrank.StrategyBudgetConscious
	}
	switch c.TimeOfDay {
	case request.LateNight:
		return domrank.StrategyLateNight
	default:
		return domrank.StrategyNeutral
	}
}

// Adjustment is the additive contextual adjustment, bounded to ±MaxAdjustment.
func Adjustment(st domrank.Strategy, s *score.Scored, impact domrank.BudgetImpact) float64 {
	c := &s.Candidate
	var adj float64

	switch st {
	case domrank.StrategyQuickBite:
		// Cheap and close.
		switch {
		case !c.HasPrice():
		case c.PriceLevel <= 1:
			adj += 0.05
		case c.PriceLevel == 2:
			adj += 0.02
		default:
			adj -= 0.05
		}
		adj += 0.05 * s.Breakdown.Proximity
	case domrank.StrategyTreat:
		// Well rated and upmarket.
		adj += 0.05 * score.Clamp01(c.Rating-4)
		switch {
		case !c.HasPrice():
		case c.PriceLevel >= 3:
			adj += 0.05
		case c.PriceLevel <= 1:
			adj -= 0.03
		}
	case domrank.StrategyBudgetConscious:
		switch {
		case !c.HasPrice():
		case c.PriceLevel <= 1:
			adj += 0.08
		case c.PriceLevel == 2:
			adj += 0.03
		case c.PriceLevel == 3:
			adj -= 0.05
		default:
			adj -= 0.1
		}
		if impact.Known && impact.Exceeds {
			adj -= 0.05
		}
	case domrank.StrategyLateNight:
		switch {
		case c.OpenNow == nil:
		case *c.OpenNow:
			adj += 0.1
		default:
			adj -= 0.1
		}
	case domrank.StrategyNeutral:
	}

	return clampAdjustment(adj)
}

func clampAdjustment(v float64) float64 {
	switch {
	case v > domrank.MaxAdjustment:
		return domrank.MaxAdjustment
	case v < -domrank.MaxAdjustment:
		return -domrank.MaxAdjustment
	default:
		return v
	}
}
