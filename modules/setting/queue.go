// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"path/filepath"

	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Queue settings for persistent background task queues
var Queue = struct {
	DataDir   string
	BatchSize int
	Workers   int
	// MemorySoftLimit bounds a worker's resident memory in bytes; a
	// worker still over the limit after a forced GC is replaced.
	// Zero disables the watchdog.
	MemorySoftLimit int64
}{
	BatchSize: 20,
	Workers:   1,
}

func loadQueueFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("queue")
	if err := sec.MapTo(&Queue); err != nil {
		log.Fatal("Failed to map Queue settings: %v", err)
	}
	if Queue.DataDir == "" {
		Queue.DataDir = filepath.Join(AppDataPath, "queues")
	}
	Queue.DataDir = mustAbs(Queue.DataDir)
}
