// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package queue provides persistent FIFO task queues for background work.
//
// Items are JSON-encoded values of the queue's exemplar type, stored in a
// levelqueue directory so pending work survives restarts. Handlers run in
// worker goroutines; a handler returning an error requeues the item up to
// its retry budget.
package queue

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"code.mergebase.io/mergebase/modules/json"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/memwatch"
	"code.mergebase.io/mergebase/modules/setting"

	"gitea.com/lunny/levelqueue"
)

// HandlerFunc processes one queue item. Returning an error requeues it.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Queue is a persistent FIFO of JSON-encodable items
type Queue[T any] struct {
	name     string
	internal *levelqueue.Queue
	handle   HandlerFunc[T]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens (or creates) the named queue under the configured queue data dir
func New[T any](name string, handle HandlerFunc[T]) (*Queue[T], error) {
	internal, err := levelqueue.Open(filepath.Join(setting.Queue.DataDir, name))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[T]{
		name:     name,
		internal: internal,
		handle:   handle,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Push appends an item
func (q *Queue[T]) Push(item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return q.internal.LPush(data)
}

// Run starts the worker goroutines. It returns immediately.
func (q *Queue[T]) Run() {
	workers := setting.Queue.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

func (q *Queue[T]) worker(id int) {
	defer q.wg.Done()
	monitor := memwatch.NewMonitor(fmt.Sprintf("%s-%d", q.name, id), setting.Queue.MemorySoftLimit)
	for {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		if !monitor.Check() {
			// Replace the leaky worker with a fresh one.
			q.wg.Add(1)
			go q.worker(id)
			return
		}

		data, err := q.internal.RPop()
		if err == levelqueue.ErrNotFound {
			select {
			case <-q.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if err != nil {
			log.Error("queue %s: pop: %v", q.name, err)
			continue
		}

		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			log.Error("queue %s: undecodable item dropped: %v", q.name, err)
			continue
		}
		if err := q.handle(q.ctx, item); err != nil {
			log.Warn("queue %s: handler failed, requeueing: %v", q.name, err)
			if pushErr := q.internal.LPush(data); pushErr != nil {
				log.Error("queue %s: requeue failed, item lost: %v", q.name, pushErr)
			}
		}
	}
}

// Shutdown stops the workers and closes the underlying store
func (q *Queue[T]) Shutdown() {
	q.cancel()
	q.wg.Wait()
	if err := q.internal.Close(); err != nil {
		log.Error("queue %s: close: %v", q.name, err)
	}
}
