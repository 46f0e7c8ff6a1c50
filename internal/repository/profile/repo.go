// Package profile reads dietary profiles stored as Redis/Valkey JSON documents.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/domain"
	domprofile "github.com/kailas-cloud/dinewise/internal/domain/profile"
)

// store is the consumer interface for profiles (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements usecase/discovery.ProfileReader.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Profile returns the validated, normalized profile of userID.
func (r *Repo) Profile(ctx context.Context, userID string) (*domprofile.Profile, error) {
	key := profileKey(userID)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}

	p, err := parseProfile(raw)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", userID, err)
	}
	p.UserID = userID
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	return p, nil
}

// Save stores p under its user id.
func (r *Repo) Save(ctx context.Context, p *domprofile.Profile) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: profile user id is required", domain.ErrInvalidRequest)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	key := profileKey(p.UserID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// parseProfile accepts both the "$" path form ([{...}]) and a bare document.
func parseProfile(raw []byte) (*domprofile.Profile, error) {
	var wrapped []domprofile.Profile
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if len(wrapped) == 0 {
			return nil, domain.ErrNotFound
		}
		return &wrapped[0], nil
	}
	var p domprofile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Key pattern: dinewise:profile:{user}

func profileKey(userID string) string {
	return fmt.Sprintf("%sprofile:%s", domain.KeyPrefix, userID)
}
