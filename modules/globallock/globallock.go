// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package globallock provides advisory locks shared between workers.
//
// Two scopes matter in practice: the per-repository write lock and the
// per-pull-request transition lock. Keys are plain strings; use RepoLockKey
// and PullRequestLockKey to derive them.
package globallock

import (
	"context"
	"fmt"
	"sync"

	"code.mergebase.io/mergebase/modules/setting"

	"github.com/redis/go-redis/v9"
)

// ReleaseFunc releases the lock. It is safe to call more than once.
type ReleaseFunc func()

// Locker provides cross-worker advisory locking
type Locker interface {
	// Lock blocks until the lock for key is acquired or ctx is done. The
	// returned context is cancelled if the lock is lost (e.g. expiry).
	Lock(ctx context.Context, key string) (context.Context, ReleaseFunc, error)
	// TryLock acquires the lock only if it is immediately available.
	TryLock(ctx context.Context, key string) (bool, context.Context, ReleaseFunc, error)
}

var (
	defaultLocker Locker
	initOnce      sync.Once
)

// DefaultLocker returns the configured process locker, initializing it on
// first use. The memory locker only serializes within one process; multi
// worker deployments must configure redis.
func DefaultLocker() Locker {
	initOnce.Do(func() {
		if setting.LockService.ServiceType == "redis" {
			opts, err := redis.ParseURL(setting.LockService.ServiceConnStr)
			if err != nil {
				panic(fmt.Sprintf("invalid lock service conn str: %v", err))
			}
			defaultLocker = NewRedisLocker(redis.NewClient(opts))
			return
		}
		defaultLocker = NewMemoryLocker()
	})
	return defaultLocker
}

// Lock acquires the named lock with the default locker
func Lock(ctx context.Context, key string) (context.Context, ReleaseFunc, error) {
	return DefaultLocker().Lock(ctx, key)
}

// TryLock acquires the named lock with the default locker without blocking
func TryLock(ctx context.Context, key string) (bool, context.Context, ReleaseFunc, error) {
	return DefaultLocker().TryLock(ctx, key)
}

// LockAndDo runs f while holding the named lock
func LockAndDo(ctx context.Context, key string, f func(ctx context.Context) error) error {
	ctx, release, err := Lock(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return f(ctx)
}

// RepoLockKey derives the advisory lock key serializing writes to one repository
func RepoLockKey(repoID int64) string {
	return fmt.Sprintf("repo_write_%d", repoID)
}

// PullRequestLockKey derives the lock key serializing state transitions of one pull request
func PullRequestLockKey(prID int64) string {
	return fmt.Sprintf("pull_request_%d", prID)
}
