// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"time"

	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Webhook settings
var Webhook = struct {
	DeliverTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	SkipTLSVerify  bool
}{
	DeliverTimeout: 30 * time.Second,
	MaxAttempts:    5,
	BackoffBase:    time.Second,
}

func loadWebhookFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("webhook")
	if err := sec.MapTo(&Webhook); err != nil {
		log.Fatal("Failed to map Webhook settings: %v", err)
	}
	if Webhook.MaxAttempts < 1 {
		Webhook.MaxAttempts = 1
	}
}
