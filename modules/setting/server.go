// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Server settings
var Server = struct {
	AppURL      string
	HTTPAddr    string
	HTTPPort    string
	WorkerCount int
}{
	AppURL:      "http://localhost:3000/",
	HTTPAddr:    "0.0.0.0",
	HTTPPort:    "3000",
	WorkerCount: 4,
}

func loadServerFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("server")
	if err := sec.MapTo(&Server); err != nil {
		log.Fatal("Failed to map Server settings: %v", err)
	}
	if Server.WorkerCount < 1 {
		Server.WorkerCount = 1
	}
}
