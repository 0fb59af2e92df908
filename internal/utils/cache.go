package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（集合统计等低频数据）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间5分钟，清理间隔10分钟
	Cache = cache.New(5*time.Minute, 10*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// cacheItem 包装实际的数据，增加过期时间
type cacheItem[T any] struct {
	value     T
	expiredAt time.Time
}

// QueryCache 查询结果缓存：定容 LRU + TTL。
// 文档集合只在重建时整体替换，读侧可以放心缓存
type QueryCache[T any] struct {
	storage *lru.Cache[string, cacheItem[T]]
	ttl     time.Duration
}

// NewQueryCache size 是最大缓存条数，ttl 是数据有效期
func NewQueryCache[T any](size int, ttl time.Duration) *QueryCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, cacheItem[T]](size)
	return &QueryCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（已存在的 key 直接覆盖）
func (c *QueryCache[T]) Set(key string, value T) {
	c.storage.Add(key, cacheItem[T]{
		value:     value,
		expiredAt: time.Now().Add(c.ttl),
	})
}

// Get 读取，带过期检查
func (c *QueryCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.expiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.value, true
}

// Clear 清空全部缓存（重建之后调用）
func (c *QueryCache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前缓存条数
func (c *QueryCache[T]) Len() int {
	return c.storage.Len()
}
