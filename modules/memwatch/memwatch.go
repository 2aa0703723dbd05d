// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package memwatch enforces a resident-memory soft limit on long running
// workers. Leaky VCS operations can grow a worker without bound; the
// watchdog marks such a worker non-live so its owner can replace it.
package memwatch

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"code.mergebase.io/mergebase/modules/log"

	"github.com/prometheus/procfs"
)

// Monitor tracks one worker against a soft limit. A zero limit disables
// all checks.
type Monitor struct {
	name      string
	softLimit int64
	dead      atomic.Bool

	readRSS func() (int64, error)
}

// NewMonitor creates a monitor reading the process RSS from /proc. On
// platforms without procfs the runtime heap size is used instead.
func NewMonitor(name string, softLimit int64) *Monitor {
	return &Monitor{name: name, softLimit: softLimit, readRSS: residentMemory}
}

func residentMemory() (int64, error) {
	proc, err := procfs.Self()
	if err == nil {
		if stat, err := proc.Stat(); err == nil {
			return int64(stat.ResidentMemory()), nil
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.Sys), nil
}

// Live reports whether the worker is still allowed to take work.
func (m *Monitor) Live() bool {
	return !m.dead.Load()
}

// Check samples memory usage and returns whether the worker may continue.
// When usage is over the limit a GC is forced and the sample retried;
// staying over the limit marks the worker non-live permanently.
func (m *Monitor) Check() bool {
	if m.softLimit <= 0 || m.dead.Load() {
		return !m.dead.Load()
	}
	used, err := m.readRSS()
	if err != nil {
		log.Warn("memwatch %s: cannot read memory usage: %v", m.name, err)
		return true
	}
	if used <= m.softLimit {
		return true
	}

	runtime.GC()
	debug.FreeOSMemory()

	used, err = m.readRSS()
	if err == nil && used <= m.softLimit {
		log.Info("memwatch %s: usage recovered after GC (%d <= %d bytes)", m.name, used, m.softLimit)
		return true
	}
	m.dead.Store(true)
	log.Warn("memwatch %s: memory usage %d bytes exceeds soft limit %d, marking worker non-live", m.name, used, m.softLimit)
	return false
}
