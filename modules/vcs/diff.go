// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package vcs

// RawDiff is an unprocessed unified diff as produced by one backend. The
// backend tag matters: dialects differ in header markers and rename/copy
// notation, and the parser keys off it.
type RawDiff struct {
	Backend Backend
	Raw     []byte
}

// String returns the raw diff body
func (d *RawDiff) String() string {
	return string(d.Raw)
}

// Size returns the raw byte length
func (d *RawDiff) Size() int {
	return len(d.Raw)
}
