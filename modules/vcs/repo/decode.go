// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"time"

	"code.mergebase.io/mergebase/modules/vcs"
)

// The remote side answers with loosely typed msgpack values: maps keyed by
// interface{}, numbers in whatever width the encoder chose. These helpers
// normalize them.

func decodeString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func decodeBytes(v any) []byte {
	switch s := v.(type) {
	case []byte:
		return s
	case string:
		return []byte(s)
	}
	return nil
}

func decodeInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	case int8:
		return int64(n)
	case uint8:
		return int64(n)
	case int16:
		return int64(n)
	case uint16:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	}
	return 0
}

func decodeStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, decodeString(item))
	}
	return out
}

func decodeAnyMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[decodeString(k)] = val
		}
		return out
	}
	return map[string]any{}
}

func decodeStringMap(v any) map[string]string {
	anyMap := decodeAnyMap(v)
	out := make(map[string]string, len(anyMap))
	for k, val := range anyMap {
		out[k] = decodeString(val)
	}
	return out
}

// decodeCommit unpacks the remote commit record. Dates travel as unix
// seconds plus a tz offset in seconds east of UTC.
func decodeCommit(v any) *vcs.Commit {
	m := decodeAnyMap(v)
	rawID := decodeString(m["raw_id"])
	if rawID == "" {
		return nil
	}
	unix := decodeInt(m["date"])
	tzOffset := int(decodeInt(m["tz"]))
	return &vcs.Commit{
		RawID:         rawID,
		Idx:           int(decodeInt(m["idx"])),
		ParentIDs:     decodeStringSlice(m["parents"]),
		Branch:        decodeString(m["branch"]),
		Message:       decodeString(m["message"]),
		Author:        decodeString(m["author"]),
		Date:          time.Unix(unix, 0).In(time.FixedZone("", tzOffset)),
		AffectedPaths: decodeStringSlice(m["affected_paths"]),
	}
}
