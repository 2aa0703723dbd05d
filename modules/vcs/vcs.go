// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package vcs defines the backend-neutral repository vocabulary: backends,
// references, commits, and the error taxonomy shared by the remote client,
// the repository handles and the merge engine.
package vcs

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Backend identifies a version control system
type Backend string

const (
	BackendGit Backend = "git"
	BackendHg  Backend = "hg"
	BackendSvn Backend = "svn"
)

// IsValid reports whether b names a supported backend
func (b Backend) IsValid() bool {
	switch b {
	case BackendGit, BackendHg, BackendSvn:
		return true
	}
	return false
}

// SupportsPullRequests reports whether pull requests can target this backend.
// Subversion repositories are read-only from the merge core's point of view.
func (b Backend) SupportsPullRequests() bool {
	return b == BackendGit || b == BackendHg
}

// RefType classifies a Reference
type RefType string

const (
	RefTypeBranch   RefType = "branch"
	RefTypeBookmark RefType = "book"
	RefTypeTag      RefType = "tag"
	RefTypeRev      RefType = "rev"
)

// Reference is a stable pointer into a repository. CommitID is always a full
// hash; Name may be empty when Type is RefTypeRev.
type Reference struct {
	Type     RefType `json:"type"`
	Name     string  `json:"name"`
	CommitID string  `json:"commit_id"`
}

// String renders the reference in type:name:commit form
func (r Reference) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Type, r.Name, r.CommitID)
}

// ParseReference parses the type:name:commit form produced by String
func ParseReference(s string) (Reference, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Reference{}, fmt.Errorf("malformed reference %q", s)
	}
	ref := Reference{Type: RefType(parts[0]), Name: parts[1], CommitID: parts[2]}
	switch ref.Type {
	case RefTypeBranch, RefTypeBookmark, RefTypeTag, RefTypeRev:
	default:
		return Reference{}, fmt.Errorf("malformed reference type in %q", s)
	}
	return ref, nil
}

// Commit is one revision as reported by a backend. Idx is the backend
// assigned ordinal and is a presentation hint only.
type Commit struct {
	RawID         string
	Idx           int
	ParentIDs     []string
	Branch        string
	Message       string
	Author        string
	Date          time.Time
	AffectedPaths []string
}

// ShortID returns the abbreviated commit hash
func (c *Commit) ShortID() string {
	if len(c.RawID) > 12 {
		return c.RawID[:12]
	}
	return c.RawID
}

// MergeRefName is the reference name set in a shadow repository to point at
// the last successful trial merge: refs/heads/pr-merge for Git, the pr-merge
// bookmark for Mercurial.
const MergeRefName = "pr-merge"

// SortedRefNames returns map keys ascending, or descending when reverse is
// set (tags are listed newest-name-first).
func SortedRefNames(m map[string]string, reverse bool) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	if reverse {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return names
}
