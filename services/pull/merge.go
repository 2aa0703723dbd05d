// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"fmt"

	pull_model "code.mergebase.io/mergebase/models/pull"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/globallock"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/services/merge"
	"code.mergebase.io/mergebase/services/permission"
)

// WorkspaceID derives the shadow workspace key of a pull request. Every
// merge attempt of the same pull request reuses the same workspace.
func WorkspaceID(pr *pull_model.PullRequest) string {
	return fmt.Sprintf("pr-%d", pr.ID)
}

// MergeOptions tunes a merge attempt beyond its defaults.
type MergeOptions struct {
	Message     string
	DryRun      bool
	UseRebase   bool
	CloseBranch bool
}

// Merge drives the merge engine for a pull request. Preconditions
// (permission, review approval, open state) are reported through the
// response as USER_MERGE_NOT_ALLOWED rather than errors. On a successful
// real merge the pull request is closed, with the status comment, merge and
// close events emitted in that order.
func Merge(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, engine *merge.Engine, opts MergeOptions) (*merge.Response, error) {
	if err := pr.LoadRepositories(ctx); err != nil {
		return nil, err
	}

	allowed, err := permission.HasPerm(ctx, doer, pr.TargetRepo, permission.ActionMerge)
	if err != nil {
		return nil, err
	}
	if !allowed || pr.IsClosed() || (!opts.DryRun && pr.Status != pull_model.StatusApproved) {
		return merge.NotAllowed(), nil
	}

	var resp *merge.Response
	err = globallock.LockAndDo(ctx, globallock.PullRequestLockKey(pr.ID), func(ctx context.Context) error {
		return globallock.LockAndDo(ctx, globallock.RepoLockKey(pr.TargetRepoID), func(ctx context.Context) error {
			resp, err = runMerge(ctx, doer, pr, engine, opts)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func runMerge(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, engine *merge.Engine, opts MergeOptions) (*merge.Response, error) {
	sourceRef, err := pr.SourceReference()
	if err != nil {
		return nil, err
	}
	targetRef, err := pr.TargetReference()
	if err != nil {
		return nil, err
	}
	sourceRepo, err := OpenRepository(ctx, pr.SourceRepo)
	if err != nil {
		return nil, err
	}
	targetRepo, err := OpenRepository(ctx, pr.TargetRepo)
	if err != nil {
		return nil, err
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Merge pull request !%d from %s\n\n%s", pr.ID, sourceRef.Name, pr.Title)
	}

	if !opts.DryRun {
		if err := pr.SetState(ctx, pull_model.StateMerging); err != nil {
			return nil, err
		}
	}

	resp, err := engine.Merge(ctx, targetRepo, merge.Options{
		WorkspaceID: WorkspaceID(pr),
		TargetRef:   targetRef,
		SourceRepo:  sourceRepo,
		SourceRef:   sourceRef,
		Message:     message,
		MergerName:  doer.DisplayName(),
		MergerEmail: doer.Email,
		DryRun:      opts.DryRun,
		UseRebase:   opts.UseRebase,
		CloseBranch: opts.CloseBranch,
	})
	if err != nil {
		if !opts.DryRun {
			if stateErr := pr.SetState(ctx, pull_model.StateCreated); stateErr != nil {
				log.Error("Unable to reset state of pull request %d: %v", pr.ID, stateErr)
			}
		}
		return nil, err
	}

	if err := pr.RecordMergeOutcome(ctx, resp.FailureReason, resp.Metadata); err != nil {
		return nil, err
	}

	if opts.DryRun {
		return resp, nil
	}

	if !resp.Executed {
		if err := pr.SetState(ctx, pull_model.StateCreated); err != nil {
			return nil, err
		}
		return resp, nil
	}

	// status comment first, then merge, then close
	comment := &pull_model.Comment{
		RepoID:        pr.TargetRepoID,
		PullRequestID: pr.ID,
		AuthorID:      doer.ID,
		Text:          fmt.Sprintf("Pull request merged into %s as %s", targetRef.Name, resp.MergeRef.CommitID),
		Kind:          pull_model.CommentKindNote,
		Immutable:     true,
	}
	if err := pull_model.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	notification.NotifyCreateComment(ctx, doer, comment)
	notification.NotifyMergePullRequest(ctx, doer, pr)

	if err := pr.SetState(ctx, pull_model.StateClosed); err != nil {
		return nil, err
	}
	notification.NotifyClosePullRequest(ctx, doer, pr)

	log.Info("Pull request %d merged into %s by %s as %s", pr.ID, pr.TargetRepo.Name, doer.Name, resp.MergeRef.CommitID)
	return resp, nil
}
