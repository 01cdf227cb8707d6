package cache

import (
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey builds a namespaced, case-insensitive cache key
func CacheKey(kind, id string) string {
	return "questclaim:v1:" + kind + ":" + strings.ToLower(id)
}
