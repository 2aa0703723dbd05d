// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package globallock

import (
	"context"
	"sync"
	"time"
)

type memoryLocker struct {
	locks sync.Map // key -> chan struct{} with capacity 1
}

// NewMemoryLocker creates an in-process locker. Suitable for tests and
// single-worker deployments only.
func NewMemoryLocker() Locker {
	return &memoryLocker{}
}

func (l *memoryLocker) slot(key string) chan struct{} {
	v, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))
	return v.(chan struct{})
}

func (l *memoryLocker) Lock(ctx context.Context, key string) (context.Context, ReleaseFunc, error) {
	slot := l.slot(key)
	for {
		select {
		case slot <- struct{}{}:
			return l.acquired(ctx, slot)
		case <-ctx.Done():
			return ctx, func() {}, ctx.Err()
		case <-time.After(time.Second):
			// sync.Map may have rotated the slot; reload
			slot = l.slot(key)
		}
	}
}

func (l *memoryLocker) TryLock(ctx context.Context, key string) (bool, context.Context, ReleaseFunc, error) {
	slot := l.slot(key)
	select {
	case slot <- struct{}{}:
		ctx, release, err := l.acquired(ctx, slot)
		return err == nil, ctx, release, err
	default:
		return false, ctx, func() {}, nil
	}
}

func (l *memoryLocker) acquired(ctx context.Context, slot chan struct{}) (context.Context, ReleaseFunc, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	var once sync.Once
	release := func() {
		once.Do(func() {
			<-slot
			cancel(nil)
		})
	}
	return ctx, release, nil
}
