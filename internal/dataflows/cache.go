package dataflows

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

// Cache stores provider responses keyed by source, method and parameters.
type Cache interface {
	Get(ctx context.Context, source, method string, params interface{}, result interface{}) bool
	Set(ctx context.Context, source, method string, params interface{}, data interface{}) error
}

// NewCache picks the configured backend. A redis backend that cannot be
// reached falls back to the file cache.
func NewCache(cfg *Config, subdir string, ttl time.Duration) Cache {
	if !cfg.CacheEnabled {
		return nopCache{}
	}
	if cfg.CacheBackend == "redis" {
		rc, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl)
		if err == nil {
			return rc
		}
		logger.Warnf("redis cache unavailable, using file cache: %v", err)
	}
	return NewCacheManager(filepath.Join(cfg.DataCacheDir, subdir), ttl, true)
}

// cacheKey generates a cache key from parameters
func cacheKey(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x", source, method, hash)
}

// CacheManager handles file-based caching for data
type CacheManager struct {
	cacheDir     string
	ttl          time.Duration
	cacheEnabled bool
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string, ttl time.Duration, cacheEnabled bool) *CacheManager {
	return &CacheManager{
		cacheDir:     cacheDir,
		ttl:          ttl,
		cacheEnabled: cacheEnabled,
	}
}

func (cm *CacheManager) path(source, method string, params interface{}) string {
	return filepath.Join(cm.cacheDir, cacheKey(source, method, params)+".json")
}

// Get retrieves data from cache if not expired
func (cm *CacheManager) Get(_ context.Context, source, method string, params interface{}, result interface{}) bool {
	if !cm.cacheEnabled {
		return false
	}

	filePath := cm.path(source, method, params)
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > cm.ttl {
		os.Remove(filePath)
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, result) == nil
}

// Set stores data in cache
func (cm *CacheManager) Set(_ context.Context, source, method string, params interface{}, data interface{}) error {
	if !cm.cacheEnabled {
		return nil
	}

	if err := os.MkdirAll(cm.cacheDir, 0755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cm.path(source, method, params), jsonData, 0644)
}

// RedisCache shares provider responses across processes.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (rc *RedisCache) Get(ctx context.Context, source, method string, params interface{}, result interface{}) bool {
	data, err := rc.rdb.Get(ctx, "hedgefund:"+cacheKey(source, method, params)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

func (rc *RedisCache) Set(ctx context.Context, source, method string, params interface{}, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return rc.rdb.Set(ctx, "hedgefund:"+cacheKey(source, method, params), payload, rc.ttl).Err()
}

func (rc *RedisCache) Close() error {
	return rc.rdb.Close()
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, string, interface{}, interface{}) bool { return false }
func (nopCache) Set(context.Context, string, string, interface{}, interface{}) error {
	return nil
}
