// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, ext := range []string{".zip", ".tar.gz", ".tar.bz2"} {
		typ, err := ParseType(ext)
		require.NoError(t, err)
		assert.Equal(t, ext, string(typ))
	}
	_, err := ParseType(".rar")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	commit := "d1f2e3a4b5c6d7e8f9a0d1f2e3a4b5c6d7e8f9a0"

	name := FileName(Options{RepoName: "group/project", CommitID: commit, Type: TARGZ})
	assert.Equal(t, "group_project-d1f2e3a4b5c6.tar.gz", name)

	name = FileName(Options{RepoName: "project", CommitID: commit, Subrepo: true, Plain: true, Type: ZIP})
	assert.Equal(t, "project-sub-d1f2e3a4b5c6-plain.zip", name)

	withPath := FileName(Options{RepoName: "project", CommitID: commit, Path: "docs/api", Type: TARBZ2})
	withOther := FileName(Options{RepoName: "project", CommitID: commit, Path: "docs/cli", Type: TARBZ2})
	assert.NotEqual(t, withPath, withOther)
	assert.Regexp(t, `^project-d1f2e3a4b5c6-[0-9a-f]{8}\.tar\.bz2$`, withPath)
}
