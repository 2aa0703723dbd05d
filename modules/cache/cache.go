// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cache

import (
	"fmt"

	"code.mergebase.io/mergebase/modules/setting"

	mc "gitea.com/go-chi/cache"
)

var conn mc.Cache

func newCache(cacheConfig setting.Cache) (mc.Cache, error) {
	return mc.NewCacher(mc.Options{
		Adapter:       cacheConfig.Adapter,
		AdapterConfig: cacheConfig.Conn,
		Interval:      cacheConfig.Interval,
	})
}

// Init starts the cache service
func Init() error {
	var err error
	if conn == nil && setting.CacheService.Enabled {
		if conn, err = newCache(setting.CacheService.Cache); err != nil {
			return err
		}
		if err = conn.Ping(); err != nil {
			return err
		}
	}
	return err
}

// GetCache returns the currently configured cache
func GetCache() mc.Cache {
	return conn
}

// Get returns the key value from cache with callback when no key exists in cache
func Get[V any](key string, getFunc func() (V, error)) (V, error) {
	if conn == nil || setting.CacheService.TTL == 0 {
		return getFunc()
	}

	cached := conn.Get(key)
	if value, ok := cached.(V); ok {
		return value, nil
	}

	value, err := getFunc()
	if err != nil {
		return value, err
	}
	return value, conn.Put(key, value, setting.CacheService.TTLSeconds())
}

// Set stores the value produced by valueFunc under key. The old value is only
// replaced if valueFunc succeeds.
func Set[V any](key string, valueFunc func() (V, error)) (V, error) {
	if conn == nil || setting.CacheService.TTL == 0 {
		return valueFunc()
	}

	value, err := valueFunc()
	if err != nil {
		return value, err
	}
	return value, conn.Put(key, value, setting.CacheService.TTLSeconds())
}

// Remove deletes a key from the cache
func Remove(key string) {
	if conn == nil {
		return
	}
	_ = conn.Delete(key)
}

// HashKey builds a cache key from typed parts
func HashKey(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
