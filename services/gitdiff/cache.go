// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package gitdiff

import (
	"context"

	"code.mergebase.io/mergebase/modules/cache"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"
)

// DiffRequest identifies one cacheable diff computation.
type DiffRequest struct {
	RepoID           int64
	CommitID1        string
	CommitID2        string
	Path             string
	IgnoreWhitespace bool
	Context          int
	FullDiff         bool

	// ForceRecache bypasses and refreshes the cached raw diff.
	ForceRecache bool
}

func (req *DiffRequest) cacheKey() string {
	return cache.HashKey("diff:%d:%s:%s:%s:%t:%d:%t",
		req.RepoID, req.CommitID1, req.CommitID2, req.Path,
		req.IgnoreWhitespace, req.Context, req.FullDiff)
}

// GetDiff fetches the raw diff through the content-addressed cache and
// parses it under the configured limits.
func GetDiff(ctx context.Context, r vcs_repo.Repository, req *DiffRequest) (*DiffSet, error) {
	key := req.cacheKey()
	fetch := func() ([]byte, error) {
		raw, err := r.GetDiff(ctx, req.CommitID1, req.CommitID2, req.Path, req.IgnoreWhitespace, req.Context, req.Path)
		if err != nil {
			return nil, err
		}
		return raw.Raw, nil
	}

	var raw []byte
	var err error
	if req.ForceRecache {
		raw, err = cache.Set(key, fetch)
	} else {
		raw, err = cache.Get(key, fetch)
	}
	if err != nil {
		return nil, err
	}
	return ParseDiff(raw, DefaultLimits())
}
