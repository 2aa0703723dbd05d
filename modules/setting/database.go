// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"path/filepath"

	ini "gopkg.in/ini.v1"

	"code.mergebase.io/mergebase/modules/log"
)

// Database settings
var Database = struct {
	Type    string
	Host    string
	Name    string
	User    string
	Passwd  string
	SSLMode string
	Path    string // sqlite only
}{
	Type:    "sqlite3",
	SSLMode: "disable",
}

func loadDatabaseFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("database")
	if err := sec.MapTo(&Database); err != nil {
		log.Fatal("Failed to map Database settings: %v", err)
	}
	switch Database.Type {
	case "sqlite3", "mysql", "postgres":
	default:
		log.Fatal("Unknown database type: %s", Database.Type)
	}
	if Database.Type == "sqlite3" && Database.Path == "" {
		Database.Path = filepath.Join(AppDataPath, "mergebase.db")
	}
}

// DBConnStr returns the driver name and connection string for the configured database
func DBConnStr() (driver, connStr string, err error) {
	switch Database.Type {
	case "sqlite3":
		return "sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=500&_txlock=immediate", Database.Path), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true",
			Database.User, Database.Passwd, Database.Host, Database.Name), nil
	case "postgres":
		return "postgres", fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
			Database.User, Database.Passwd, Database.Host, Database.Name, Database.SSLMode), nil
	}
	return "", "", fmt.Errorf("unknown database type: %s", Database.Type)
}
