// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// LockService holds cross-worker advisory lock settings
var LockService = struct {
	ServiceType    string // memory or redis
	ServiceConnStr string
}{
	ServiceType: "memory",
}

func loadLockFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("lock")
	if err := sec.MapTo(&LockService); err != nil {
		log.Fatal("Failed to map Lock settings: %v", err)
	}
	switch LockService.ServiceType {
	case "memory", "redis":
	default:
		log.Fatal("Unknown lock service type: %s", LockService.ServiceType)
	}
	if LockService.ServiceType == "redis" && LockService.ServiceConnStr == "" {
		log.Fatal("Lock service type redis requires SERVICE_CONN_STR")
	}
}
