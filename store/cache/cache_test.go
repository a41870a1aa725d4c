package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_BasicOperations(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxItems: 100})
	defer c.Close()

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set("key1", "value1")

		val, ok := c.Get("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := c.Get("nonexistent")
		assert.False(t, ok)
		assert.Nil(t, val)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		c.Set("key2", "original")
		c.Set("key2", "updated")

		val, ok := c.Get("key2")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)
	})

	t.Run("Delete", func(t *testing.T) {
		c.Set("key3", "value3")
		c.Delete("key3")

		_, ok := c.Get("key3")
		assert.False(t, ok)
	})
}

func TestCache_Expiration(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxItems: 100})
	defer c.Close()

	c.SetWithTTL("expiring", "value", 50*time.Millisecond)

	val, ok := c.Get("expiring")
	assert.True(t, ok)
	assert.Equal(t, "value", val)

	time.Sleep(60 * time.Millisecond)

	val, ok = c.Get("expiring")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCache_Eviction(t *testing.T) {
	evicted := []string{}
	c := New(Config{
		DefaultTTL: time.Minute,
		MaxItems:   3,
		OnEviction: func(key string, _ any) {
			evicted = append(evicted, key)
		},
	})
	defer c.Close()

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Set("key3", 3)
	assert.Equal(t, 3, c.Size())

	// Access key1 to make it recently used.
	c.Get("key1")

	// Adding a fourth entry evicts the least recently used (key2).
	c.Set("key4", 4)
	assert.Equal(t, 3, c.Size())

	_, ok := c.Get("key2")
	assert.False(t, ok)

	_, ok = c.Get("key1")
	assert.True(t, ok)

	assert.Contains(t, evicted, "key2")
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, MaxItems: 1000})
	defer c.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
