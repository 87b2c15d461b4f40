// Package report keeps the outcome of the last rebalance pass in redis
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound : nothing has been saved under the key yet
var ErrNotFound = errors.New("report not found")

type InvalidTypeError struct {
	tp reflect.Type
}

func (i InvalidTypeError) Error() string {
	return fmt.Sprintf("Invalid type %q, must be a pointer type", i.tp)
}

// Store : json document stored under a single redis key
type Store struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewStore returns a Store writing to key. A ttl of 0 keeps the document forever.
func NewStore(rdb redis.Cmdable, key string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, key: key, ttl: ttl}
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Save(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *Store) Load(ctx context.Context, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return InvalidTypeError{tp: reflect.TypeOf(v)}
	}
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
