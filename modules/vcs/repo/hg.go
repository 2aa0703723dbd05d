// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/vcs"
)

type hgRepository struct {
	*base
}

// GetCommonAncestor returns the first common ancestor of two commits
func (r *hgRepository) GetCommonAncestor(ctx context.Context, commitID1, commitID2 string, otherRepo Repository) (string, error) {
	return commonAncestor(ctx, r.base, commitID1, commitID2, otherRepo)
}

// InMemoryCommit starts a commit builder
func (r *hgRepository) InMemoryCommit() *InMemoryCommit {
	return newInMemoryCommit(r.base)
}

// GetShadowInstance binds an hg handle to a shadow working copy
func (r *hgRepository) GetShadowInstance(shadowPath string, withHooks bool) Repository {
	return &hgRepository{base: r.base.shadowBase(shadowPath, withHooks)}
}

// ShadowMerge executes the trial merge in the shadow working copy, leaving
// the pr-merge bookmark on the result.
//
// The rebase path bookmarks the source tip, rebases it onto the target and
// updates to the bookmark. The merge path updates to the target, merges the
// source and commits with a "<name> <email>" username. Either way a failure
// is followed by the appropriate abort so the shadow stays clean.
func (r *hgRepository) ShadowMerge(ctx context.Context, opts TrialMergeOptions) (string, error) {
	username := fmt.Sprintf("%s <%s>", opts.MergerName, opts.MergerEmail)

	var mergeCommitID string
	if opts.UseRebase {
		if _, err := r.call(ctx, "bookmark", vcs.MergeRefName, opts.SourceRef.CommitID); err != nil {
			return "", err
		}
		result, err := r.call(ctx, "rebase", opts.SourceRef.CommitID, opts.TargetRef.CommitID, username)
		if err != nil {
			if _, abortErr := r.call(ctx, "rebase_abort"); abortErr != nil && !vcs.IsErrRepository(abortErr) {
				log.Error("hg rebase --abort in shadow %s: %v", r.path, abortErr)
			}
			if _, cleanErr := r.call(ctx, "update_clean", opts.TargetRef.CommitID); cleanErr != nil {
				log.Error("hg update --clean in shadow %s: %v", r.path, cleanErr)
			}
			return "", translateUnresolved(err)
		}
		mergeCommitID = decodeMergeResult(result)
		if _, err := r.call(ctx, "update", vcs.MergeRefName); err != nil {
			return "", err
		}
	} else {
		if _, err := r.call(ctx, "update_clean", opts.TargetRef.CommitID); err != nil {
			return "", err
		}
		result, err := r.call(ctx, "merge", opts.SourceRef.CommitID, opts.Message, username)
		if err != nil {
			if _, cleanErr := r.call(ctx, "update_clean", opts.TargetRef.CommitID); cleanErr != nil {
				log.Error("hg update --clean in shadow %s: %v", r.path, cleanErr)
			}
			return "", translateUnresolved(err)
		}
		mergeCommitID = decodeMergeResult(result)
	}

	if mergeCommitID == "" {
		return "", vcs.ErrRepository{Message: "merge produced no commit"}
	}
	if _, err := r.call(ctx, "bookmark", vcs.MergeRefName, mergeCommitID); err != nil {
		return "", err
	}
	r.InvalidateVCSCache()
	return mergeCommitID, nil
}

// ShadowCleanup aborts any in-progress rebase and resets the working copy
func (r *hgRepository) ShadowCleanup(ctx context.Context) error {
	if _, err := r.call(ctx, "rebase_abort"); err != nil && !vcs.IsErrRepository(err) {
		return err
	}
	if _, err := r.call(ctx, "update_clean", "."); err != nil {
		return err
	}
	return nil
}

// ShadowPush pushes from the shadow back to the target with hooks enabled
func (r *hgRepository) ShadowPush(ctx context.Context, targetPath string, refs []string) error {
	wire := r.wireWithHooks(true)
	_, err := r.client.Call(ctx, r.backend, wire, "push", targetPath, toAnySlice(refs))
	return err
}

// CreateCloseCommit commits a branch-closing changeset on the source branch
func (r *hgRepository) CreateCloseCommit(ctx context.Context, sourceRef vcs.Reference, message, name, email string) (string, error) {
	result, err := r.call(ctx, "close_branch", sourceRef.Name, sourceRef.CommitID, message, fmt.Sprintf("%s <%s>", name, email))
	if err != nil {
		return "", err
	}
	r.InvalidateVCSCache()
	return decodeString(result), nil
}

// GetPathPermissions reads the repository's .hg/hgacl and returns a matcher
// for the user, or nil when no ACL is configured.
func (r *hgRepository) GetPathPermissions(ctx context.Context, user string) (PathMatcher, error) {
	result, err := r.call(ctx, "read_acl")
	if err != nil {
		if vcs.IsErrCommitDoesNotExist(err) || vcs.IsErrRepository(err) {
			// no hgacl file configured
			return nil, nil
		}
		return nil, err
	}
	content := decodeBytes(result)
	if len(content) == 0 {
		return nil, nil
	}
	matcher, err := ParseHgACL(content, user)
	if err != nil {
		return nil, vcs.ErrRepositoryRequirement{Message: fmt.Sprintf("unable to parse hgacl of %s: %v", r.path, err)}
	}
	return matcher, nil
}
