// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Diff settings
var Diff = struct {
	DiffLimit int // cumulative parsed-size budget over a whole diff, bytes
	FileLimit int // per-file parsed-size budget, bytes
	Context   int // unified context lines requested from the backend
}{
	DiffLimit: 1024 * 1024,
	FileLimit: 256 * 1024,
	Context:   3,
}

func loadDiffFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("diff")
	if err := sec.MapTo(&Diff); err != nil {
		log.Fatal("Failed to map Diff settings: %v", err)
	}
}
