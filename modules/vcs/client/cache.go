// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/modules/cache"
	"code.mergebase.io/mergebase/modules/vcs"
)

// pureMethods is the fixed whitelist of read methods that are safe to
// memoize. The cache key includes the repo state uid, so rotating the uid
// after a local mutation poisons every stale entry.
var pureMethods = map[string]bool{
	"branches":        true,
	"tags":            true,
	"bookmarks":       true,
	"is_large_file":   true,
	"is_binary":       true,
	"fctx_size":       true,
	"node_history":    true,
	"blob_raw_length": true,
	"revision":        true,
	"tree_items":      true,
	"ctx_list":        true,
	"bulk_request":    true,
}

// IsPureMethod reports whether the named method is memoizable
func IsPureMethod(method string) bool {
	return pureMethods[method]
}

func regionKey(wire *Wire) string {
	return cache.HashKey("vcs_region:%d:%s", wire.RepoID, wire.RepoStateUID)
}

// regionGeneration returns the generation tag the repo's memoized entries
// are keyed under. A missing entry starts at zero.
func regionGeneration(wire *Wire) int64 {
	gen, err := cache.Get(regionKey(wire), func() (int64, error) {
		return 0, nil
	})
	if err != nil {
		return 0
	}
	return gen
}

func methodCacheKey(wire *Wire, method string, params []any) string {
	return cache.HashKey("vcs_method:%s:%d:%d:%s:%v", wire.RepoStateUID, wire.RepoID, regionGeneration(wire), method, params)
}

// CachedCall is Call with memoization for whitelisted pure methods. All
// other methods pass straight through.
func (c *Client) CachedCall(ctx context.Context, backend vcs.Backend, wire *Wire, method string, params ...any) (any, error) {
	if wire == nil || !IsPureMethod(method) {
		return c.Call(ctx, backend, wire, method, params...)
	}
	return cache.Get(methodCacheKey(wire, method, params), func() (any, error) {
		return c.Call(ctx, backend, wire, method, params...)
	})
}

// InvalidateRegion orphans every memoized entry under the given repo state
// uid, parameterized ones included, by bumping the region generation tag.
// The stale entries age out of the cache on their own.
func InvalidateRegion(wire *Wire) {
	gen := regionGeneration(wire)
	_, _ = cache.Set(regionKey(wire), func() (int64, error) {
		return gen + 1, nil
	})
}

// String implements fmt.Stringer for debug logging
func (w *Wire) String() string {
	return fmt.Sprintf("wire<%s#%d uid=%s>", w.Path, w.RepoID, w.RepoStateUID)
}
