// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/vcs"

	"github.com/google/uuid"
)

// BranchPrefix is the full ref prefix of git branches
const BranchPrefix = "refs/heads/"

// TagPrefix is the full ref prefix of git tags
const TagPrefix = "refs/tags/"

// DefaultBranchName resolves the configured default branch for new
// repositories, overridable via GIT_DEFAULT_BRANCH_NAME.
func DefaultBranchName() string {
	if name := os.Getenv("GIT_DEFAULT_BRANCH_NAME"); name != "" {
		return name
	}
	return "master"
}

type gitRepository struct {
	*base
}

// GetCommonAncestor returns the merge base of two commits
func (r *gitRepository) GetCommonAncestor(ctx context.Context, commitID1, commitID2 string, otherRepo Repository) (string, error) {
	return commonAncestor(ctx, r.base, commitID1, commitID2, otherRepo)
}

// InMemoryCommit starts a commit builder
func (r *gitRepository) InMemoryCommit() *InMemoryCommit {
	return newInMemoryCommit(r.base)
}

// GetShadowInstance binds a git handle to a shadow working copy
func (r *gitRepository) GetShadowInstance(shadowPath string, withHooks bool) Repository {
	return &gitRepository{base: r.base.shadowBase(shadowPath, withHooks)}
}

// trialMergeBranch picks a unique temporary branch name of the form
// pr_<source>-<target>_<N>, with N one above the highest existing.
func (r *gitRepository) trialMergeBranch(ctx context.Context, sourceName, targetName string) (string, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return "", err
	}
	prefix := fmt.Sprintf("pr_%s-%s_", sourceName, targetName)
	max := 0
	for name := range branches {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if n, err := strconv.Atoi(name[len(prefix):]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, max+1), nil
}

// ShadowMerge executes the trial merge inside the shadow working copy and
// leaves refs/heads/pr-merge pointing at the result.
func (r *gitRepository) ShadowMerge(ctx context.Context, opts TrialMergeOptions) (string, error) {
	if _, err := r.call(ctx, "update", opts.TargetRef.CommitID); err != nil {
		return "", err
	}

	var mergeCommitID string
	if opts.UseRebase {
		tmpBranch, err := r.trialMergeBranch(ctx, opts.SourceRef.Name, opts.TargetRef.Name)
		if err != nil {
			return "", err
		}
		if _, err := r.call(ctx, "set_ref", BranchPrefix+tmpBranch, opts.SourceRef.CommitID); err != nil {
			return "", err
		}
		result, err := r.call(ctx, "rebase", tmpBranch, opts.TargetRef.CommitID)
		if err != nil {
			// Leave no half-applied rebase behind, whatever went wrong.
			if cleanupErr := r.ShadowCleanup(ctx); cleanupErr != nil {
				log.Error("git shadow cleanup after failed rebase in %s: %v", r.path, cleanupErr)
			}
			return "", translateUnresolved(err)
		}
		mergeCommitID = decodeMergeResult(result)
	} else {
		author := fmt.Sprintf("%s <%s>", opts.MergerName, opts.MergerEmail)
		// Never fast-forward: a pull request merge always gets its own commit.
		result, err := r.call(ctx, "merge", opts.TargetRef.CommitID, opts.SourceRef.CommitID, opts.Message, author, true)
		if err != nil {
			if cleanupErr := r.ShadowCleanup(ctx); cleanupErr != nil {
				log.Error("git shadow cleanup after failed merge in %s: %v", r.path, cleanupErr)
			}
			return "", translateUnresolved(err)
		}
		mergeCommitID = decodeMergeResult(result)
	}

	if mergeCommitID == "" {
		return "", vcs.ErrRepository{Message: "merge produced no commit"}
	}
	if _, err := r.call(ctx, "set_ref", BranchPrefix+vcs.MergeRefName, mergeCommitID); err != nil {
		return "", err
	}
	r.InvalidateVCSCache()
	return mergeCommitID, nil
}

// ShadowCleanup aborts any in-progress rebase or merge. Safe to call when
// there is nothing to clean.
func (r *gitRepository) ShadowCleanup(ctx context.Context) error {
	for _, method := range []string{"abort_rebase", "abort_merge"} {
		if _, err := r.call(ctx, method); err != nil && !vcs.IsErrRepository(err) {
			return err
		}
	}
	if _, err := r.call(ctx, "reset_hard"); err != nil {
		return err
	}
	return nil
}

// ShadowPush pushes the named refs from the shadow back to the target
// repository with hooks enabled.
func (r *gitRepository) ShadowPush(ctx context.Context, targetPath string, refs []string) error {
	wire := r.wireWithHooks(true)
	_, err := r.client.Call(ctx, r.backend, wire, "push", targetPath, toAnySlice(refs))
	return err
}

// CreateCloseCommit records a close-branch commit on the source branch
func (r *gitRepository) CreateCloseCommit(ctx context.Context, sourceRef vcs.Reference, message, name, email string) (string, error) {
	result, err := r.call(ctx, "close_branch", sourceRef.Name, sourceRef.CommitID, message, fmt.Sprintf("%s <%s>", name, email))
	if err != nil {
		return "", err
	}
	r.InvalidateVCSCache()
	return decodeString(result), nil
}

// shadowBase derives a fresh base bound to the shadow path. The shadow gets
// its own state uid: its mutations must not poison the origin's cache keys.
func (b *base) shadowBase(shadowPath string, withHooks bool) *base {
	return &base{
		client:    b.client,
		backend:   b.backend,
		path:      shadowPath,
		repoID:    b.repoID,
		withHooks: withHooks,
		stateUID:  uuid.NewString(),
		context_:  uuid.NewString(),
		config:    b.config,
	}
}
