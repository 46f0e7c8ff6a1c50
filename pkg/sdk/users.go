package dinewise

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/search/request"
)

// SaveProfile validates and stores a user's dietary profile. The stored
// copy is normalized; p is not modified.
func (c *Client) SaveProfile(ctx context.Context, p *Profile) error {
	start := time.Now()
	err := c.saveProfile(ctx, p)
	c.obs.observe("save_profile", start, err)
	return err
}

func (c *Client) saveProfile(ctx context.Context, p *Profile) error {
	if p == nil || p.UserID == "" {
		return fmt.Errorf("%w: profile user id is required", domain.ErrInvalidRequest)
	}
	cp := *p
	cp.Normalize()
	if err := cp.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := c.profiles.Save(ctx, &cp); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile returns the stored profile, or ErrNotFound.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	start := time.Now()
	p, err := c.profiles.Profile(ctx, userID)
	c.obs.observe("get_profile", start, err)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// Annotate records community dietary and allergen data for a place.
// A community "contains" always overrides the provider.
func (c *Client) Annotate(ctx context.Context, placeID string, a Annotations) error {
	start := time.Now()
	var err error
	if placeID == "" {
		err = fmt.Errorf("%w: place id is required", domain.ErrInvalidRequest)
	} else if err = c.annotations.Put(ctx, placeID, a); err != nil {
		err = fmt.Errorf("annotate %s: %w", placeID, err)
	}
	c.obs.observe("annotate", start, err)
	return err
}

// SetBudget stores a user's dining budget and spend for a period.
func (c *Client) SetBudget(ctx context.Context, userID string, period Period, budget, spent float64) error {
	start := time.Now()
	err := c.setBudget(ctx, userID, period, budget, spent)
	c.obs.observe("set_budget", start, err)
	return err
}

func (c *Client) setBudget(ctx context.Context, userID string, period Period, budget, spent float64) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	if period == "" {
		period = request.PeriodWeek
	}
	if period != request.PeriodWeek && period != request.PeriodMonth {
		return fmt.Errorf("%w: invalid budget period %q", domain.ErrInvalidRequest, period)
	}
	if budget < 0 || spent < 0 {
		return fmt.Errorf("%w: budget and spend must be >= 0", domain.ErrInvalidRequest)
	}
	if err := c.spend.SetBudget(ctx, userID, period, budget, spent); err != nil {
		return fmt.Errorf("set budget %s: %w", userID, err)
	}
	return nil
}

// RemainingBudget returns budget minus spend for the period and whether a
// budget is stored.
func (c *Client) RemainingBudget(ctx context.Context, userID string, period Period) (float64, bool, error) {
	if period == "" {
		period = request.PeriodWeek
	}
	v, ok, err := c.spend.RemainingBudget(ctx, userID, period)
	if err != nil {
		return 0, false, fmt.Errorf("remaining budget %s: %w", userID, err)
	}
	return v, ok, nil
}
