// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hook fires the synchronous VCS hook points around pull and push
// operations.
package hook

import (
	"context"
	"os"

	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/setting"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"

	"github.com/google/uuid"
)

// Extras is the structured context handed to every hook invocation.
type Extras struct {
	Username   string
	IP         string
	RepoName   string
	CommitIDs  []string
	BranchRefs []string
	TagRefs    []string
}

// asMap renders the extras dict the VCS server expects, stamped with a
// unique request id and the configured SCM data blob.
func (e *Extras) asMap() map[string]any {
	scmData := os.Getenv("RC_SCM_DATA")
	if scmData == "" {
		scmData = setting.VCS.SCMData
	}
	return map[string]any{
		"username":    e.Username,
		"ip":          e.IP,
		"repository":  e.RepoName,
		"commit_ids":  e.CommitIDs,
		"branch_refs": e.BranchRefs,
		"tag_refs":    e.TagRefs,
		"server_url":  setting.Server.AppURL,
		"request_id":  uuid.NewString(),
		"scm_data":    scmData,
	}
}

// Pull runs the pre hook, the supplied operation and the post hook. A pre
// hook error aborts before the operation runs.
func Pull(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, handle vcs_repo.Repository, extras *Extras, op func(ctx context.Context) error) error {
	m := extras.asMap()
	if err := handle.FireHook(ctx, vcs_repo.HookPrePull, m); err != nil {
		return err
	}
	if err := op(ctx); err != nil {
		return err
	}
	if err := handle.FireHook(ctx, vcs_repo.HookPostPull, m); err != nil {
		return err
	}
	notification.NotifyPullRepository(ctx, doer, repo)
	return nil
}

// Push runs the pre hook, the supplied operation and the post hook with
// the actual pushed commit ids, then invalidates the repository cache.
func Push(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, handle vcs_repo.Repository, extras *Extras, op func(ctx context.Context) error) error {
	m := extras.asMap()
	if err := handle.FireHook(ctx, vcs_repo.HookPrePush, m); err != nil {
		return err
	}
	if err := op(ctx); err != nil {
		return err
	}
	handle.InvalidateVCSCache()
	if err := handle.FireHook(ctx, vcs_repo.HookPostPush, m); err != nil {
		return err
	}
	branch := ""
	if len(extras.BranchRefs) > 0 {
		branch = extras.BranchRefs[0]
	}
	notification.NotifyPushCommits(ctx, doer, repo, branch, extras.CommitIDs)
	return nil
}

// RepoSize computes the repository size through its dedicated hook.
func RepoSize(ctx context.Context, handle vcs_repo.Repository, extras *Extras) (int64, error) {
	return handle.RepoSize(ctx, extras.asMap())
}
