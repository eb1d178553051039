package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis down")
}
func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}
func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("redis down")
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, NewMetricsService(), 0, nil, true)

	var out map[string]int
	assert.False(t, cache.Get(context.Background(), "k", &out))
	cache.Set(context.Background(), "k", map[string]int{"a": 1}, 0)
	assert.True(t, cache.Get(context.Background(), "k", &out))
	assert.Equal(t, 1, out["a"])

	cache.Invalidate(context.Background(), "k*")
	assert.False(t, cache.Get(context.Background(), "k", &out))
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	disabled := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, false)
	disabled.Set(context.Background(), "k", 1, 0)
	var v int
	assert.False(t, disabled.Get(context.Background(), "k", &v))

	failing := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil, true)
	assert.NotPanics(t, func() {
		failing.Set(context.Background(), "k", 1, 0)
		failing.Invalidate(context.Background(), "*")
	})
	assert.False(t, failing.Get(context.Background(), "k", &v))
}
