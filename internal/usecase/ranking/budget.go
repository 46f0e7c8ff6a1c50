package ranking

import (
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	domrank "github.com/kailas-cloud/dinewise/internal/domain/ranking"
)

// DefaultPriceEstimates is the estimated spend per visit by price level.
var DefaultPriceEstimates = map[int]float64{0: 0, 1: 15, 2: 30, 3: 60, 4: 100}

// budgetImpact compares a visit's estimated cost with the remaining period budget.
func budgetImpact(c *candidate.Candidate, estimates map[int]float64, remaining float64, remainingKnown bool) domrank.BudgetImpact {
	cost, priced := estimates[c.PriceLevel]
	if !c.HasPrice() || !priced {
		return domrank.BudgetImpact{}
	}
	bi := domrank.BudgetImpact{EstimatedCost: cost}
	if !remainingKnown {
		return bi
	}

	bi.Known = true
	bi.RemainingAfter = remaining - cost
	bi.Exceeds = cost > remaining
	switch {
	case remaining > 0:
		bi.Share = cost / remaining
	case cost > 0:
		bi.Share = 1
	}
	return bi
}
