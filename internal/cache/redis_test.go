package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPost struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideMissThenHit(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetchCalls := 0
	fetch := func(dest *cachedPost) func() error {
		return func() error {
			fetchCalls++
			dest.ID = 1
			dest.Name = "Soup"
			return nil
		}
	}

	var first cachedPost
	require.NoError(t, Aside(ctx, PostKey(1), &first, PostTTL, fetch(&first)))
	assert.Equal(t, 1, fetchCalls)
	assert.Equal(t, "Soup", first.Name)

	var second cachedPost
	require.NoError(t, Aside(ctx, PostKey(1), &second, PostTTL, fetch(&second)))
	assert.Equal(t, 1, fetchCalls, "second read must be served from cache")
	assert.Equal(t, first, second)
}

func TestAsideFetchError(t *testing.T) {
	setupMiniredis(t)

	var dest cachedPost
	wantErr := errors.New("db down")
	err := Aside(context.Background(), PostKey(2), &dest, PostTTL, func() error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, FeedKey(), []cachedPost{{ID: 1}}, FeedTTL))
	require.True(t, mr.Exists(FeedKey()))

	InvalidateFeed(ctx)
	assert.False(t, mr.Exists(FeedKey()))
}

func TestAsideWithoutClient(t *testing.T) {
	SetClient(nil)

	var dest cachedPost
	require.NoError(t, Aside(context.Background(), PostKey(3), &dest, time.Minute, func() error {
		dest.ID = 3
		return nil
	}))
	assert.Equal(t, uint(3), dest.ID)
}
