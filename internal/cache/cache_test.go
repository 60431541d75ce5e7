// file: internal/cache/cache_test.go
// version: 2.0.0
// guid: ab9bd950-1688-496f-9847-9951ed678323

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestExpiry(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("k", 42)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := c.Get("k")
	assert.False(t, ok, "expected expired entry")
}

func TestVersionMismatchMisses(t *testing.T) {
	c := New[int](time.Minute)
	c.SetVersion("stats", 3, 10)

	v, ok := c.GetVersion("stats", 3)
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = c.GetVersion("stats", 4)
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c := New[int](time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return calls * 100, nil
	}

	v, err := c.GetOrLoad("stats", 1, load)
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	v, err = c.GetOrLoad("stats", 1, load)
	require.NoError(t, err)
	assert.Equal(t, 100, v, "same version is served from cache")
	assert.Equal(t, 1, calls)

	v, err = c.GetOrLoad("stats", 2, load)
	require.NoError(t, err)
	assert.Equal(t, 200, v)
}

func TestGetOrLoadErrorNotCached(t *testing.T) {
	c := New[int](time.Minute)
	_, err := c.GetOrLoad("stats", 1, func() (int, error) { return 0, errors.New("down") })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidate(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}
