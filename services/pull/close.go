// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/globallock"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/util"
	"code.mergebase.io/mergebase/services/permission"
)

// Close transitions an open pull request to its terminal state. Only the
// author or a user with merge permission on the target may close.
func Close(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, message string) error {
	if err := pr.LoadRepositories(ctx); err != nil {
		return err
	}
	if doer.ID != pr.AuthorID {
		allowed, err := permission.HasPerm(ctx, doer, pr.TargetRepo, permission.ActionMerge)
		if err != nil {
			return err
		}
		if !allowed {
			return util.ErrPermissionDenied
		}
	}

	err := globallock.LockAndDo(ctx, globallock.PullRequestLockKey(pr.ID), func(ctx context.Context) error {
		if pr.IsClosed() {
			return pull_model.ErrPullRequestClosed{ID: pr.ID}
		}
		if message != "" {
			if err := pull_model.CreateComment(ctx, &pull_model.Comment{
				RepoID:        pr.TargetRepoID,
				PullRequestID: pr.ID,
				AuthorID:      doer.ID,
				Text:          message,
				Kind:          pull_model.CommentKindNote,
			}); err != nil {
				return err
			}
		}
		return pr.SetState(ctx, pull_model.StateClosed)
	})
	if err != nil {
		return err
	}

	log.Info("Pull request %d closed by %s", pr.ID, doer.Name)
	notification.NotifyClosePullRequest(ctx, doer, pr)
	return nil
}
