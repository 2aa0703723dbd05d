// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"path/filepath"

	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Repository settings
var Repository = struct {
	Root              string
	ShadowRoot        string
	DefaultBranch     string
	ShadowClaimMaxAge int64 // seconds before an abandoned shadow claim is reclaimed
}{
	DefaultBranch:     "master",
	ShadowClaimMaxAge: 3600,
}

func loadRepositoryFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("repository")
	if err := sec.MapTo(&Repository); err != nil {
		log.Fatal("Failed to map Repository settings: %v", err)
	}

	if Repository.Root == "" {
		Repository.Root = filepath.Join(AppDataPath, "repositories")
	}
	Repository.Root = mustAbs(Repository.Root)

	if Repository.ShadowRoot == "" {
		Repository.ShadowRoot = filepath.Join(AppDataPath, "shadow-repositories")
	}
	Repository.ShadowRoot = mustAbs(Repository.ShadowRoot)
}
