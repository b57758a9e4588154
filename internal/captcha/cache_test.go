package captcha

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	answer string
	err    error
	calls  int
}

func (r *countingResolver) Resolve(_ context.Context, _ []byte) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.answer, nil
}

func TestCache_IdenticalChallengeResolvedOnce(t *testing.T) {
	inner := &countingResolver{answer: "abcde"}
	cache := NewCache(inner)
	image := []byte("challenge-image-bytes")

	first, err := cache.Resolve(context.Background(), image)
	require.NoError(t, err)

	second, err := cache.Resolve(context.Background(), image)
	require.NoError(t, err)

	assert.Equal(t, "abcde", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "identical content must hit the cache")
}

func TestCache_DifferentContentDelegates(t *testing.T) {
	inner := &countingResolver{answer: "abcde"}
	cache := NewCache(inner)

	_, err := cache.Resolve(context.Background(), []byte("image-one"))
	require.NoError(t, err)
	_, err = cache.Resolve(context.Background(), []byte("image-two"))
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCache_FailureNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("unresolved")}
	cache := NewCache(inner)
	image := []byte("image")

	_, err := cache.Resolve(context.Background(), image)
	require.Error(t, err)
	_, err = cache.Resolve(context.Background(), image)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failures must not populate the cache")
}
