// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Attachment settings for comment uploads
var Attachment = struct {
	AllowedTypes []string `delim:","`
	MaxSize      int64    // bytes
}{
	AllowedTypes: []string{".gif", ".jpeg", ".jpg", ".png", ".docx", ".gz", ".log", ".pdf", ".pptx", ".txt", ".xlsx", ".zip"},
	MaxSize:      10 * 1024 * 1024,
}

func loadAttachmentFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("attachment")
	if err := sec.MapTo(&Attachment); err != nil {
		log.Fatal("Failed to map Attachment settings: %v", err)
	}
}
