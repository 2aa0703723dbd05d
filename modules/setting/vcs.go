// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"time"

	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// VCS holds settings for the remote VCS server transport
var VCS = struct {
	ServerURL string
	Timeout   time.Duration // per-call deadline, long clones included
	ChunkSize int           // streaming chunk size in bytes
	PoolSize  int           // connection pool size, usually the worker count
	SCMData   string        `ini:"SCM_DATA"` // opaque payload propagated to hooks
}{
	ServerURL: "http://localhost:9900/",
	Timeout:   3600 * time.Second,
	ChunkSize: 16384,
	PoolSize:  4,
}

func loadVCSFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("vcs")
	if err := sec.MapTo(&VCS); err != nil {
		log.Fatal("Failed to map VCS settings: %v", err)
	}
	if VCS.ChunkSize <= 0 {
		VCS.ChunkSize = 16384
	}
	if VCS.PoolSize <= 0 {
		VCS.PoolSize = Server.WorkerCount
	}
}
