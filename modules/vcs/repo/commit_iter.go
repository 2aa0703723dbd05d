// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"

	"code.mergebase.io/mergebase/modules/vcs"
)

// CommitIter walks a pre-resolved id range lazily, loading commit bodies one
// at a time. It is restartable: the diff and compare paths walk the same
// range more than once, the timeline consumes it one-shot.
type CommitIter struct {
	repo *base
	ids  []string
	opts GetCommitsOptions
	pos  int
}

func newCommitIter(repo *base, ids []string, opts GetCommitsOptions) *CommitIter {
	return &CommitIter{repo: repo, ids: ids, opts: opts}
}

// Restartable is always true for this iterator implementation
func (it *CommitIter) Restartable() bool { return true }

// Reset rewinds the iterator to the first commit
func (it *CommitIter) Reset() { it.pos = 0 }

// Len returns the number of ids in the walk before filtering
func (it *CommitIter) Len() int { return len(it.ids) }

// IDs returns the resolved commit id range without loading bodies
func (it *CommitIter) IDs() []string {
	out := make([]string, len(it.ids))
	copy(out, it.ids)
	return out
}

// Next loads the next matching commit, or (nil, nil) at the end of the walk
func (it *CommitIter) Next(ctx context.Context) (*vcs.Commit, error) {
	for it.pos < len(it.ids) {
		id := it.ids[it.pos]
		it.pos++

		commit, err := it.repo.GetCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		if it.opts.Branch != "" && commit.Branch != it.opts.Branch {
			continue
		}
		if it.opts.Since > 0 && commit.Date.Unix() < it.opts.Since {
			continue
		}
		if it.opts.Until > 0 && commit.Date.Unix() > it.opts.Until {
			continue
		}
		return commit, nil
	}
	return nil, nil
}
