package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryCacheSetGet(t *testing.T) {
	c := NewQueryCache[string](10, time.Minute)
	c.Set("k", "v")

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, c.Len())
}

func TestQueryCacheMiss(t *testing.T) {
	c := NewQueryCache[int](10, time.Minute)
	v, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestQueryCacheExpiry(t *testing.T) {
	c := NewQueryCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestQueryCacheEvictsOldest(t *testing.T) {
	c := NewQueryCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestQueryCacheClear(t *testing.T) {
	c := NewQueryCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Clear()
	assert.Zero(t, c.Len())
}
