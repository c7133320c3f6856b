package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DatasetCache 按文件路径缓存已加载的数据集
// 文件修改时间或大小变化时重新加载
type DatasetCache struct {
	opts    Options
	entries map[string]*cacheEntry
	hits    int
	misses  int
	mu      sync.Mutex
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	ds      *Dataset
}

func NewDatasetCache(opts Options) *DatasetCache {
	return &DatasetCache{
		opts:    opts,
		entries: make(map[string]*cacheEntry),
	}
}

// Load 返回数据集的副本, fromCache 表示是否命中缓存
func (c *DatasetCache) Load(path string) (ds *Dataset, fromCache bool, err error) {
	key := cacheKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		delete(c.entries, key)
		return nil, false, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, path, err)
	}

	if e, ok := c.entries[key]; ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		c.hits++
		return e.ds.clone(), true, nil
	}

	c.misses++
	loaded, err := LoadDataset(path, c.opts)
	if err != nil {
		delete(c.entries, key)
		return nil, false, err
	}

	c.entries[key] = &cacheEntry{
		modTime: loaded.ModTime,
		size:    loaded.Size,
		ds:      loaded,
	}
	return loaded.clone(), false, nil
}

// Invalidate 删除指定路径的缓存
func (c *DatasetCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(path))
}

// Stats 缓存命中与未命中次数
func (c *DatasetCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func (d *Dataset) clone() *Dataset {
	cp := *d
	cp.Frame = d.Frame.Copy()
	cp.TimeColumns = append([]string(nil), d.TimeColumns...)
	return &cp
}
