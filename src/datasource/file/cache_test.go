package file

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetCache(t *testing.T) {
	path := writeFile(t, "orders.csv", ordersCSV)
	cache := NewDatasetCache(testOptions())

	first, fromCache, err := cache.Load(path)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 3, first.Frame.Nrow())

	second, fromCache, err := cache.Load(path)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first.Frame.Records(), second.Frame.Records())

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	// 修改时间变化后重新加载
	require.NoError(t, os.WriteFile(path, []byte(ordersCSV+"o4,delivered,2023-02-01,2023-02-02,2023-02-05\n"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	third, fromCache, err := cache.Load(path)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 4, third.Frame.Nrow())

	cache.Invalidate(path)
	_, fromCache, err = cache.Load(path)
	require.NoError(t, err)
	assert.False(t, fromCache)

	require.NoError(t, os.Remove(path))
	_, _, err = cache.Load(path)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDatasetCacheDoesNotCacheErrors(t *testing.T) {
	path := writeFile(t, "orders.csv", "order_id\no1\n")
	cache := NewDatasetCache(testOptions())

	_, _, err := cache.Load(path)
	require.Error(t, err)
	_, _, err = cache.Load(path)
	require.Error(t, err)

	_, misses := cache.Stats()
	assert.Equal(t, 2, misses)
}
