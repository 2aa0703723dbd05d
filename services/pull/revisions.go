// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	"code.mergebase.io/mergebase/modules/vcs"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"
)

// CommitDelta describes how a pull request's revision set changed on
// update: Added holds new commits, Removed the ones dropped by force-push,
// Common the shared remainder and Total the resulting set.
type CommitDelta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Common  []string `json:"common"`
	Total   []string `json:"total"`
}

// Empty reports whether the update changed nothing.
func (d *CommitDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// computeRevisions walks the source history down to (and excluding) the
// common ancestor and returns the proposed commits ordered newest first.
func computeRevisions(ctx context.Context, source vcs_repo.Repository, sourceCommitID, ancestor string) ([]string, error) {
	seen := map[string]bool{}
	revisions := make([]string, 0, 16)
	queue := []string{sourceCommitID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" || id == ancestor || seen[id] {
			continue
		}
		seen[id] = true
		commit, err := source.GetCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, commit.RawID)
		queue = append(queue, commit.ParentIDs...)
	}
	return revisions, nil
}

// computeDelta diffs the previous revision set against the new one,
// preserving the new set's order in Added and Total and the old set's order
// in Removed and Common.
func computeDelta(previous, current []string) *CommitDelta {
	prevSet := make(map[string]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}
	curSet := make(map[string]bool, len(current))
	for _, id := range current {
		curSet[id] = true
	}

	delta := &CommitDelta{
		Added:   []string{},
		Removed: []string{},
		Common:  []string{},
		Total:   append([]string{}, current...),
	}
	for _, id := range current {
		if !prevSet[id] {
			delta.Added = append(delta.Added, id)
		}
	}
	for _, id := range previous {
		if curSet[id] {
			delta.Common = append(delta.Common, id)
		} else {
			delta.Removed = append(delta.Removed, id)
		}
	}
	return delta
}

// targetDroppedCommits lists the commits reachable from the previous target
// tip but no longer from the current one, newest first.
func targetDroppedCommits(ctx context.Context, target vcs_repo.Repository, oldTip, newTip string) ([]string, error) {
	if oldTip == "" || oldTip == newTip {
		return []string{}, nil
	}
	ancestor, err := target.GetCommonAncestor(ctx, newTip, oldTip, nil)
	if err != nil {
		return nil, err
	}
	return computeRevisions(ctx, target, oldTip, ancestor)
}

// resolveRef resolves a symbolic reference against the repository's current
// refs, filling in the commit id.
func resolveRef(ctx context.Context, r vcs_repo.Repository, ref vcs.Reference) (vcs.Reference, error) {
	if ref.Type == vcs.RefTypeRev && ref.CommitID != "" {
		return ref, nil
	}
	commit, err := r.GetCommit(ctx, ref.Name)
	if err != nil {
		return ref, err
	}
	ref.CommitID = commit.RawID
	return ref, nil
}
