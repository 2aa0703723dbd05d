// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package archive builds download file names for repository archives.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"code.mergebase.io/mergebase/modules/util"
)

// Type is a supported archive format.
type Type string

const (
	ZIP    Type = ".zip"
	TARGZ  Type = ".tar.gz"
	TARBZ2 Type = ".tar.bz2"
)

// ParseType maps a file extension to an archive type.
func ParseType(ext string) (Type, error) {
	switch Type(strings.ToLower(ext)) {
	case ZIP:
		return ZIP, nil
	case TARGZ:
		return TARGZ, nil
	case TARBZ2:
		return TARBZ2, nil
	}
	return "", fmt.Errorf("archive type %q: %w", ext, util.ErrInvalidArgument)
}

const shortShaLen = 12

// Options select what goes into an archive and how its name is built.
type Options struct {
	RepoName string
	CommitID string
	// Subrepo marks archives taken from a nested repository.
	Subrepo bool
	// Plain archives are built without the VCS metadata directory.
	Plain bool
	// Path restricts the archive to a subtree; it contributes a short
	// hash so different subtrees get distinct file names.
	Path string
	Type Type
}

// FileName renders the archive download name. Path separators in the
// repository name are flattened so the result is a single component.
func FileName(opts Options) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(opts.RepoName, "/", "_"))
	if opts.Subrepo {
		b.WriteString("-sub")
	}
	b.WriteByte('-')
	b.WriteString(shortSha(opts.CommitID))
	if opts.Plain {
		b.WriteString("-plain")
	}
	if opts.Path != "" {
		sum := sha256.Sum256([]byte(opts.Path))
		b.WriteByte('-')
		b.WriteString(hex.EncodeToString(sum[:])[:8])
	}
	b.WriteString(string(opts.Type))
	return b.String()
}

func shortSha(commitID string) string {
	if len(commitID) > shortShaLen {
		return commitID[:shortShaLen]
	}
	return commitID
}
