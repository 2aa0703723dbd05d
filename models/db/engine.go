// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package db holds the xorm engine and transaction helpers shared by every
// model package.
package db

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/modules/setting"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/lib/pq"              // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite driver

	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

var (
	x      *xorm.Engine
	tables []any

	// DefaultContext is the default context to run xorm queries in
	DefaultContext context.Context = context.Background()
)

// RegisterModel registers a model's table for sync. Call from init().
func RegisterModel(bean any) {
	tables = append(tables, bean)
}

// Init opens the configured database and syncs all registered tables
func Init(ctx context.Context) error {
	driver, connStr, err := setting.DBConnStr()
	if err != nil {
		return err
	}
	engine, err := xorm.NewEngine(driver, connStr)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	engine.SetMapper(names.GonicMapper{})
	if err = engine.Sync(tables...); err != nil {
		return fmt.Errorf("unable to sync tables: %w", err)
	}
	x = engine
	DefaultContext = ctx
	return nil
}

// SetEngine injects an already-built engine. Test helper.
func SetEngine(engine *xorm.Engine) {
	x = engine
}

// SyncAllTables syncs the registered tables against the current engine
func SyncAllTables() error {
	return x.Sync(tables...)
}
