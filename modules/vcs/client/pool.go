// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"net/http"
	"time"
)

// connPool bounds concurrent calls to the VCS server. Each call claims a
// client and releases it when done; a client that saw a transport failure is
// discarded and replaced by a fresh one.
type connPool struct {
	clients chan *http.Client
	timeout time.Duration
}

func newConnPool(size int, timeout time.Duration) *connPool {
	if size < 1 {
		size = 1
	}
	p := &connPool{
		clients: make(chan *http.Client, size),
		timeout: timeout,
	}
	for i := 0; i < size; i++ {
		p.clients <- p.newClient()
	}
	return p
}

func (p *connPool) newClient() *http.Client {
	return &http.Client{
		Timeout: p.timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 1,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// claim blocks until a client is available or ctx is done. The release
// function takes whether the client is still healthy.
func (p *connPool) claim(ctx context.Context) (*http.Client, func(healthy bool), error) {
	select {
	case c := <-p.clients:
		return c, func(healthy bool) {
			if !healthy {
				c.CloseIdleConnections()
				c = p.newClient()
			}
			p.clients <- c
		}, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
