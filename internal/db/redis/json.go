package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/dinewise/internal/db"
)

// JSONSet stores a JSON document at path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.client.B().Arbitrary("JSON.SET").Keys(key).Args(path, rueidis.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Key: key, Err: err}
	}
	return nil
}

// JSONGet returns the document (or the given paths) at key, or db.ErrKeyNotFound.
// With a "$" path the server wraps the result in an array.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.client.B().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()
	raw, err := s.client.Do(ctx, cmd).ToString()
	if rueidis.IsRedisNil(err) || (err == nil && raw == "") {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONGet, Key: key, Err: err}
	}
	return []byte(raw), nil
}
