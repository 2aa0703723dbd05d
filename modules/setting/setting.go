// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package setting loads and exposes the process-wide configuration.
//
// Settings live in an ini file; every section has a global struct with
// defaults that the file overrides. Call Init (or InitWithDefaults in tests)
// exactly once at startup before any other subsystem starts.
package setting

import (
	"os"
	"path/filepath"

	"code.mergebase.io/mergebase/modules/log"

	ini "gopkg.in/ini.v1"
)

// Cfg is the root config provider. Exposed for the rare caller that needs a
// raw section (e.g. the hgacl parser reuses the ini machinery, not this file).
var Cfg *ini.File

// AppDataPath is the base directory for mutable application data
var AppDataPath = "data"

// AppVer holds the build version, set from main
var AppVer = "dev"

// Init loads configuration from the given ini file path. A missing file is
// not an error; defaults apply.
func Init(customConf string) {
	Cfg = ini.Empty()
	if customConf != "" {
		if _, err := os.Stat(customConf); err == nil {
			var loadErr error
			Cfg, loadErr = ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, customConf)
			if loadErr != nil {
				log.Fatal("Failed to load custom conf %q: %v", customConf, loadErr)
			}
		}
	}
	Cfg.NameMapper = ini.SnackCase

	loadServerFrom(Cfg)
	loadRepositoryFrom(Cfg)
	loadVCSFrom(Cfg)
	loadDiffFrom(Cfg)
	loadCacheFrom(Cfg)
	loadLockFrom(Cfg)
	loadQueueFrom(Cfg)
	loadWebhookFrom(Cfg)
	loadAttachmentFrom(Cfg)
	loadDatabaseFrom(Cfg)
}

// InitWithDefaults loads the built-in defaults only. Test helper.
func InitWithDefaults() {
	Init("")
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatal("Unable to resolve path %q: %v", path, err)
	}
	return abs
}
