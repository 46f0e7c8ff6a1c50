package candcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/kailas-cloud/dinewise/internal/domain"
	"github.com/kailas-cloud/dinewise/internal/domain/geo"
	"github.com/kailas-cloud/dinewise/internal/domain/search/filter"
)

var keyPrefix = domain.KeyPrefix + "cand:"

// DefaultCellMeters is the geocell edge used for key derivation.
const DefaultCellMeters = 150

// MaxFetchRadius is the largest radius the provider accepts (meters).
const MaxFetchRadius = 50_000

// radiusBuckets are the fetch radii (meters). A request radius maps to the
// smallest bucket that covers it.
var radiusBuckets = []int{250, 500, 1000, 2000, 5000, 10_000, 20_000, MaxFetchRadius}

// RadiusBucket returns the bucket that covers meters.
func RadiusBucket(meters int) int {
	for _, b := range radiusBuckets {
		if meters <= b {
			return b
		}
	}
	return radiusBuckets[len(radiusBuckets)-1]
}

// Key derives the cache key for a search. Origins inside one geocell with the
// same radius bucket and filters map to the same key.
func Key(origin geo.Point, radiusMeters int, f filter.Raw) string {
	cell := geo.CellOf(origin, DefaultCellMeters)
	raw := fmt.Sprintf("%s|%d|%s", cell, RadiusBucket(radiusMeters), f.Canonical())
	h := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(h[:])
}

// AreaKey is the key of the unfiltered search for the same geocell and radius
// bucket. The provider ignores filters, so every filtered key of an area can be
// served from its area entry.
func AreaKey(origin geo.Point, radiusMeters int) string {
	return Key(origin, radiusMeters, filter.None)
}

// FetchArea returns the live search circle behind a key: centered on the
// geocell and widened by its half diagonal, so it covers the requested radius
// from any origin in the cell. The provider caps radius at MaxFetchRadius.
func FetchArea(origin geo.Point, radiusMeters int) (geo.Point, int) {
	cell := geo.CellOf(origin, DefaultCellMeters)
	r := RadiusBucket(radiusMeters) + int(math.Ceil(cell.HalfDiagonal()))
	return cell.Center(), min(r, MaxFetchRadius)
}

// IsKey reports whether s has the shape of a cache key.
func IsKey(s string) bool {
	if len(s) != len(keyPrefix)+sha256.Size*2 || s[:len(keyPrefix)] != keyPrefix {
		return false
	}
	_, err := hex.DecodeString(s[len(keyPrefix):])
	return err == nil
}
