// Package safety reads community-verified dietary and allergen annotations.
// Each place is one hash: field "allergen:<kind>" holds verified_safe or
// contains, field "dietary:<kind>" holds accommodates or conflicts.
package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

const (
	allergenField = "allergen:"
	dietaryField  = "dietary:"
)

// store is the consumer interface for annotations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/discovery.AnnotationReader.
type Repo struct {
	store store
}

// New creates an annotation repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Annotations returns annotations for the given place ids in one round-trip.
// Places without annotations are absent from the map. Unrecognized values
// are skipped so a bad write can never mark a place safe.
func (r *Repo) Annotations(ctx context.Context, placeIDs []string) (map[string]candidate.Annotations, error) {
	if len(placeIDs) == 0 {
		return map[string]candidate.Annotations{}, nil
	}
	keys := make([]string, len(placeIDs))
	for i, id := range placeIDs {
		keys[i] = annotationKey(id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi annotations: %w", err)
	}

	out := make(map[string]candidate.Annotations, len(rows))
	for i, m := range rows {
		if len(m) == 0 || i >= len(placeIDs) {
			continue
		}
		if a, ok := annotationsFromHash(m); ok {
			out[placeIDs[i]] = a
		}
	}
	return out, nil
}

// Put records community annotations for placeID.
func (r *Repo) Put(ctx context.Context, placeID string, a candidate.Annotations) error {
	if placeID == "" {
		return fmt.Errorf("%w: place id is required", domain.ErrInvalidRequest)
	}
	fields := make(map[string]string, len(a.Allergens)+len(a.Dietary))
	for k, v := range a.Allergens {
		if v != candidate.SafetyVerified && v != candidate.SafetyContains {
			return fmt.Errorf("%w: allergen %s: invalid safety %q", domain.ErrInvalidRequest, k, v)
		}
		fields[allergenField+string(k)] = string(v)
	}
	for k, v := range a.Dietary {
		if v != candidate.SupportAccommodates && v != candidate.SupportConflicts {
			return fmt.Errorf("%w: restriction %s: invalid support %q", domain.ErrInvalidRequest, k, v)
		}
		fields[dietaryField+string(k)] = string(v)
	}
	if len(fields) == 0 {
		return nil
	}

	key := annotationKey(placeID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func annotationsFromHash(m map[string]string) (candidate.Annotations, bool) {
	var a candidate.Annotations
	for field, val := range m {
		switch {
		case strings.HasPrefix(field, allergenField):
			kind := profile.AllergenKind(strings.TrimPrefix(field, allergenField))
			s := candidate.Safety(val)
			if s != candidate.SafetyVerified && s != candidate.SafetyContains {
				continue
			}
			if a.Allergens == nil {
				a.Allergens = make(map[profile.AllergenKind]candidate.Safety)
			}
			a.Allergens[kind] = s
		case strings.HasPrefix(field, dietaryField):
			kind := profile.RestrictionKind(strings.TrimPrefix(field, dietaryField))
			s := candidate.Support(val)
			if s != candidate.SupportAccommodates && s != candidate.SupportConflicts {
				continue
			}
			if a.Dietary == nil {
				a.Dietary = make(map[profile.RestrictionKind]candidate.Support)
			}
			a.Dietary[kind] = s
		}
	}
	return a, len(a.Allergens)+len(a.Dietary) > 0
}

// Key pattern: dinewise:safety:{placeID}

func annotationKey(placeID string) string {
	return fmt.Sprintf("%ssafety:%s", domain.KeyPrefix, placeID)
}
