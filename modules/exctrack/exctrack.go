// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exctrack persists exception snapshots to disk so that failures
// inside detached workers survive process restarts and can be inspected
// later.
package exctrack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"code.mergebase.io/mergebase/modules/log"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	storeDirName    = "rc_exception_store_v1"
	snapshotVersion = "v1"
)

// Snapshot is one recorded exception with its request context.
type Snapshot struct {
	Version       string `msgpack:"version"`
	ExcID         string `msgpack:"exc_id"`
	UTCDate       string `msgpack:"exc_utc_date"`
	Timestamp     int64  `msgpack:"exc_timestamp"`
	Message       string `msgpack:"exc_message"`
	Type          string `msgpack:"exc_type"`
	ClientAddress string `msgpack:"client_address"`
	UserAgent     string `msgpack:"user_agent"`
	Method        string `msgpack:"method"`
	URL           string `msgpack:"url"`
}

// RequestInfo carries the HTTP context captured alongside an exception.
type RequestInfo struct {
	ClientAddress string
	UserAgent     string
	Method        string
	URL           string
}

// Store writes and reads snapshots under a single directory. It is
// constructed once at startup and passed to the components that need it.
type Store struct {
	root   string
	prefix string
}

// NewStore creates a snapshot store rooted under dir (the system temp
// directory when empty). prefix distinguishes processes sharing a host.
func NewStore(dir, prefix string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	root := filepath.Join(dir, storeDirName)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create exception store %s: %w", root, err)
	}
	return &Store{root: root, prefix: prefix}, nil
}

// Record serializes err and its request context into a new snapshot file
// and returns the snapshot id. Recording never panics; storage failures
// are logged and reported back to the caller.
func (s *Store) Record(err error, req RequestInfo) (string, error) {
	now := time.Now()
	snap := &Snapshot{
		Version:       snapshotVersion,
		ExcID:         strconv.FormatInt(now.UnixNano(), 10),
		UTCDate:       now.UTC().Format(time.RFC3339),
		Timestamp:     now.Unix(),
		Message:       err.Error(),
		Type:          fmt.Sprintf("%T", err),
		ClientAddress: req.ClientAddress,
		UserAgent:     req.UserAgent,
		Method:        req.Method,
		URL:           req.URL,
	}

	body, mErr := msgpack.Marshal(snap)
	if mErr != nil {
		return "", fmt.Errorf("encode exception snapshot: %w", mErr)
	}
	name := fmt.Sprintf("%s_%s_%d", snap.ExcID, s.prefix, snap.Timestamp)
	if wErr := os.WriteFile(filepath.Join(s.root, name), body, 0o644); wErr != nil {
		log.Error("Unable to store exception snapshot %s: %v", name, wErr)
		return "", wErr
	}
	return snap.ExcID, nil
}

// Get loads the snapshot with the given id.
func (s *Store) Get(excID string) (*Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), excID+"_") {
			body, err := os.ReadFile(filepath.Join(s.root, entry.Name()))
			if err != nil {
				return nil, err
			}
			snap := &Snapshot{}
			if err := msgpack.Unmarshal(body, snap); err != nil {
				return nil, fmt.Errorf("decode exception snapshot %s: %w", entry.Name(), err)
			}
			return snap, nil
		}
	}
	return nil, os.ErrNotExist
}

// List returns the stored snapshot ids, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		id, _, found := strings.Cut(entry.Name(), "_")
		if found {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Clean removes snapshots older than maxAge and returns how many were
// deleted.
func (s *Store) Clean(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	removed := 0
	for _, entry := range entries {
		parts := strings.Split(entry.Name(), "_")
		ts, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		if err != nil || ts >= cutoff {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil {
			log.Error("Unable to remove exception snapshot %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
