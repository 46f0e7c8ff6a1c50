// Package spend reads the user's dining budget and spend per period.
// Each user/period is one hash with fields "budget" and "spent".
package spend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

// store is the consumer interface for spend records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements usecase/discovery.BudgetReader.
type Repo struct {
	store store
}

// New creates a spend repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// RemainingBudget returns budget minus spent for the period. known is false
// when the user has no budget recorded for the period.
func (r *Repo) RemainingBudget(ctx context.Context, userID string, period request.Period) (float64, bool, error) {
	key := spendKey(userID, period)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return 0, false, fmt.Errorf("hgetall %s: %w", key, err)
	}
	raw, ok := m["budget"]
	if !ok {
		return 0, false, nil
	}

	budget, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse budget %s: %w", key, err)
	}
	var spent float64
	if s, ok := m["spent"]; ok {
		if spent, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false, fmt.Errorf("parse spent %s: %w", key, err)
		}
	}
	return budget - spent, true, nil
}

// SetBudget records the budget and spend so far for a period.
func (r *Repo) SetBudget(ctx context.Context, userID string, period request.Period, budget, spent float64) error {
	if budget < 0 || spent < 0 {
		return fmt.Errorf("%w: budget and spent must be >= 0", domain.ErrInvalidRequest)
	}
	key := spendKey(userID, period)
	err := r.store.HSet(ctx, key, map[string]string{
		"budget": strconv.FormatFloat(budget, 'f', -1, 64),
		"spent":  strconv.FormatFloat(spent, 'f', -1, 64),
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Key pattern: dinewise:spend:{user}:{period}

func spendKey(userID string, period request.Period) string {
	if period == "" {
		period = request.PeriodWeek
	}
	return fmt.Sprintf("%sspend:%s:%s", domain.KeyPrefix, userID, period)
}
