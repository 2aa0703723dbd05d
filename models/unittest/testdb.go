// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package unittest provides database fixtures for model tests.
package unittest

import (
	"testing"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/setting"

	"github.com/stretchr/testify/require"
	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

// PrepareTestDatabase points the db package at a fresh in-memory sqlite
// database with all registered tables synced.
func PrepareTestDatabase(t *testing.T) {
	t.Helper()
	setting.InitWithDefaults()

	engine, err := xorm.NewEngine("sqlite3", "file::memory:?cache=shared&_busy_timeout=500")
	require.NoError(t, err)
	engine.SetMapper(names.GonicMapper{})
	db.SetEngine(engine)
	require.NoError(t, db.SyncAllTables())
	t.Cleanup(func() {
		_ = engine.Close()
	})
}
