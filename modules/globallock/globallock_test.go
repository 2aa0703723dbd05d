// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package globallock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestLocker(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		testLocker(t, NewMemoryLocker())
	})
	t.Run("redis", func(t *testing.T) {
		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		defer client.Close()
		testLocker(t, NewRedisLocker(client))
	})
}

func testLocker(t *testing.T, locker Locker) {
	t.Run("lock", func(t *testing.T) {
		parentCtx := context.Background()
		ctx, unlock, err := locker.Lock(parentCtx, "test")
		defer unlock()

		assert.NotEqual(t, parentCtx, ctx)
		assert.NoError(t, err)

		func() {
			parentCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, unlock, err := locker.Lock(parentCtx, "test")
			defer unlock()

			assert.Error(t, err)
		}()

		unlock()
		assert.Error(t, ctx.Err())
		unlock() // safe to call multiple times

		func() {
			_, unlock, err := locker.Lock(context.Background(), "test")
			defer unlock()

			assert.NoError(t, err)
		}()
	})

	t.Run("try lock", func(t *testing.T) {
		ok, _, unlock, err := locker.TryLock(context.Background(), "trylock")
		defer unlock()

		assert.True(t, ok)
		assert.NoError(t, err)

		func() {
			ok, _, unlock, err := locker.TryLock(context.Background(), "trylock")
			defer unlock()

			assert.False(t, ok)
			assert.NoError(t, err)
		}()

		unlock()

		func() {
			ok, _, unlock, err := locker.TryLock(context.Background(), "trylock")
			defer unlock()

			assert.True(t, ok)
			assert.NoError(t, err)
		}()
	})
}
