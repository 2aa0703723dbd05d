// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"strings"

	"code.mergebase.io/mergebase/modules/vcs"
)

// svnRepository supports the read-only surface: history, diffs and refs.
// Pull requests are a Git/Hg feature; the merge primitives answer with an
// explicit repository error rather than reaching the server.
type svnRepository struct {
	*base
}

// recognized layout prefixes stripped for consistent filename display
var svnLayoutPrefixes = []string{"trunk/", "branches/", "tags/"}

// NormalizeSvnPath strips a leading recognized branch/tag prefix so paths
// compare and display consistently across revisions.
func NormalizeSvnPath(path string) string {
	path = strings.TrimPrefix(path, "/")
	for _, prefix := range svnLayoutPrefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if prefix == "trunk/" {
			return rest
		}
		// branches/<name>/... and tags/<name>/... drop the name segment too
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return rest[idx+1:]
		}
		return ""
	}
	return path
}

// GetCommonAncestor returns the first common ancestor of two revisions
func (r *svnRepository) GetCommonAncestor(ctx context.Context, commitID1, commitID2 string, otherRepo Repository) (string, error) {
	return commonAncestor(ctx, r.base, commitID1, commitID2, otherRepo)
}

// InMemoryCommit starts a commit builder
func (r *svnRepository) InMemoryCommit() *InMemoryCommit {
	return newInMemoryCommit(r.base)
}

// GetShadowInstance binds an svn handle to a shadow path. Only the read
// surface works on it.
func (r *svnRepository) GetShadowInstance(shadowPath string, withHooks bool) Repository {
	return &svnRepository{base: r.base.shadowBase(shadowPath, withHooks)}
}

func (r *svnRepository) mergeUnsupported() error {
	return vcs.ErrRepository{Message: "pull request merge operations are not supported for subversion repositories"}
}

func (r *svnRepository) ShadowMerge(ctx context.Context, opts TrialMergeOptions) (string, error) {
	return "", r.mergeUnsupported()
}

func (r *svnRepository) ShadowCleanup(ctx context.Context) error {
	return nil
}

func (r *svnRepository) ShadowPush(ctx context.Context, targetPath string, refs []string) error {
	return r.mergeUnsupported()
}

func (r *svnRepository) CreateCloseCommit(ctx context.Context, sourceRef vcs.Reference, message, name, email string) (string, error) {
	return "", r.mergeUnsupported()
}
