package safety

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/dinewise/internal/db"
	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/candidate"
	"github.com/kailas-cloud/dinewise/internal/domain/profile"
)

func TestAnnotations(t *testing.T) {
	repo, ms := newTestRepo(t)
	var gotKeys []string
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		gotKeys = keys
		return []map[string]string{
			{
				"allergen:peanut": "verified_safe",
				"allergen:milk":   "contains",
				"dietary:vegan":   "accommodates",
				"allergen:egg":    "probably_fine",
				"unrelated":       "x",
			},
			{},
		}, nil
	}

	got, err := repo.Annotations(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("Annotations: %v", err)
	}
	if !slices.Equal(gotKeys, []string{"dinewise:safety:p1", "dinewise:safety:p2"}) {
		t.Errorf("keys = %v", gotKeys)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	a := got["p1"]
	if a.Allergens[profile.Peanut] != candidate.SafetyVerified || a.Allergens[profile.Milk] != candidate.SafetyContains {
		t.Errorf("allergens = %v", a.Allergens)
	}
	if _, ok := a.Allergens[profile.Egg]; ok {
		t.Error("unrecognized safety value must be skipped")
	}
	if a.Dietary[profile.Vegan] != candidate.SupportAccommodates {
		t.Errorf("dietary = %v", a.Dietary)
	}
}

func TestAnnotations_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		t.Error("store must not be called for no ids")
		return nil, nil
	}

	got, err := repo.Annotations(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestAnnotations_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		return nil, &db.Error{Op: db.OpHGetAll, Err: errors.New("timeout")}
	}

	_, err := repo.Annotations(context.Background(), []string{"p1"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Errorf("err = %v, want *db.Error", err)
	}
}

func TestPut(t *testing.T) {
	repo, ms := newTestRepo(t)
	var gotKey string
	var gotFields map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		gotKey, gotFields = key, fields
		return nil
	}

	err := repo.Put(context.Background(), "p1", candidate.Annotations{
		Allergens: map[profile.AllergenKind]candidate.Safety{profile.Peanut: candidate.SafetyVerified},
		Dietary:   map[profile.RestrictionKind]candidate.Support{profile.Halal: candidate.SupportConflicts},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if gotKey != "dinewise:safety:p1" {
		t.Errorf("key = %q", gotKey)
	}
	if gotFields["allergen:peanut"] != "verified_safe" || gotFields["dietary:halal"] != "conflicts" {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestPut_Invalid(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetFn = func(context.Context, string, map[string]string) error {
		t.Error("invalid annotations must not be written")
		return nil
	}

	err := repo.Put(context.Background(), "p1", candidate.Annotations{
		Allergens: map[profile.AllergenKind]candidate.Safety{profile.Peanut: candidate.SafetyUnknown},
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if err := repo.Put(context.Background(), "", candidate.Annotations{}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}
