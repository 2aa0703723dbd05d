// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"sort"
	"strings"

	"code.mergebase.io/mergebase/modules/vcs"
)

// decodeMergeResult extracts the merge commit id from a remote merge or
// rebase response, which is either a bare id or a {commit_id: ...} map.
func decodeMergeResult(result any) string {
	if s := decodeString(result); s != "" {
		return s
	}
	return decodeString(decodeAnyMap(result)["commit_id"])
}

// translateUnresolved turns the remote "unresolved conflicts" abort into a
// typed ErrUnresolvedFiles whose first field is the offending path list.
// Other errors pass through unchanged.
func translateUnresolved(err error) error {
	repoErr, ok := err.(vcs.ErrRepository)
	if !ok {
		return err
	}
	msg := repoErr.Message
	idx := strings.Index(msg, "unresolved conflicts:")
	if idx < 0 {
		return err
	}
	rest := strings.TrimSpace(msg[idx+len("unresolved conflicts:"):])
	files := []string{}
	for _, f := range strings.Split(rest, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return vcs.ErrUnresolvedFiles{Files: files}
}

// commonAncestor implements the shared merge-base contract. Identical
// commits are their own ancestor. The cross-repository case walks parents of
// both sides until the first shared commit; "" means unrelated histories.
func commonAncestor(ctx context.Context, b *base, commitID1, commitID2 string, otherRepo Repository) (string, error) {
	if commitID1 == commitID2 {
		return commitID1, nil
	}

	if otherRepo == nil || otherRepo.Path() == b.path {
		result, err := b.call(ctx, "ancestor", commitID1, commitID2)
		if err != nil {
			return "", err
		}
		return decodeString(result), nil
	}

	// Cross-repo: collect the ancestor set of commitID1 locally, then walk
	// commitID2's ancestry in the other repo to the first hit.
	local, err := ancestorSet(ctx, b, commitID1)
	if err != nil {
		return "", err
	}

	queue := []string{commitID2}
	seen := map[string]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		if local[id] {
			return id, nil
		}
		commit, err := otherRepo.GetCommit(ctx, id)
		if err != nil {
			if vcs.IsErrCommitDoesNotExist(err) {
				continue
			}
			return "", err
		}
		queue = append(queue, commit.ParentIDs...)
	}
	return "", nil
}

func ancestorSet(ctx context.Context, b *base, commitID string) (map[string]bool, error) {
	set := map[string]bool{}
	queue := []string{commitID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if set[id] {
			continue
		}
		set[id] = true
		commit, err := b.GetCommit(ctx, id)
		if err != nil {
			if vcs.IsErrCommitDoesNotExist(err) {
				continue
			}
			return nil, err
		}
		queue = append(queue, commit.ParentIDs...)
	}
	return set, nil
}
