// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package memwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledMonitorAlwaysLive(t *testing.T) {
	m := NewMonitor("idle", 0)
	assert.True(t, m.Check())
	assert.True(t, m.Live())
}

func TestMonitorRecoversAfterGC(t *testing.T) {
	samples := []int64{200, 80}
	m := NewMonitor("worker-0", 100)
	m.readRSS = func() (int64, error) {
		used := samples[0]
		if len(samples) > 1 {
			samples = samples[1:]
		}
		return used, nil
	}
	assert.True(t, m.Check())
	assert.True(t, m.Live())
}

func TestMonitorMarksNonLiveWhenStillOver(t *testing.T) {
	m := NewMonitor("worker-1", 100)
	m.readRSS = func() (int64, error) { return 500, nil }

	assert.False(t, m.Check())
	assert.False(t, m.Live())

	// Once dead a monitor stays dead even if usage drops.
	m.readRSS = func() (int64, error) { return 1, nil }
	assert.False(t, m.Check())
}
