// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package globallock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	goredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

type redisLocker struct {
	rs     *redsync.Redsync
	mutexM sync.Map
}

// NewRedisLocker creates a redsync-backed locker shared between workers
func NewRedisLocker(client redis.UniversalClient) Locker {
	l := &redisLocker{
		rs: redsync.New(goredis.NewPool(client)),
	}
	time.AfterFunc(5*time.Second, l.extend)
	return l
}

type redisMutex struct {
	mutex  *redsync.Mutex
	cancel context.CancelCauseFunc
}

func (l *redisLocker) Lock(ctx context.Context, key string) (context.Context, ReleaseFunc, error) {
	return l.lock(ctx, key, 0)
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (bool, context.Context, ReleaseFunc, error) {
	ctx, f, err := l.lock(ctx, key, 1)
	var errTaken *redsync.ErrTaken
	if errors.As(err, &errTaken) {
		return false, ctx, f, nil
	}
	return err == nil, ctx, f, err
}

func (l *redisLocker) lock(ctx context.Context, key string, tries int) (context.Context, ReleaseFunc, error) {
	var options []redsync.Option
	if tries > 0 {
		options = append(options, redsync.WithTries(tries))
	}
	mutex := l.rs.NewMutex(key, options...)
	if err := mutex.LockContext(ctx); err != nil {
		return ctx, func() {}, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	l.mutexM.Store(key, &redisMutex{mutex: mutex, cancel: cancel})

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mutexM.Delete(key)
			// If unlocking fails the lock expires on its own; do not use
			// UnlockContext, the ctx may already be done.
			_, _ = mutex.Unlock()
			cancel(fmt.Errorf("lock released"))
		})
	}
	return ctx, release, nil
}

// extend renews held mutexes before they expire
func (l *redisLocker) extend() {
	toExtend := make([]*redisMutex, 0)
	l.mutexM.Range(func(_, value any) bool {
		m := value.(*redisMutex)
		if time.Now().Before(m.mutex.Until()) {
			toExtend = append(toExtend, m)
		}
		return true
	})
	for _, v := range toExtend {
		if ok, err := v.mutex.Extend(); !ok {
			v.cancel(err)
		}
	}
	time.AfterFunc(5*time.Second, l.extend)
}
