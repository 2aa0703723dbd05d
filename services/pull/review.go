// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/globallock"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/util"
)

// Vote records the doer's review verdict. Only assigned reviewers may
// vote, and only while the pull request is open.
func Vote(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus) error {
	err := globallock.LockAndDo(ctx, globallock.PullRequestLockKey(pr.ID), func(ctx context.Context) error {
		if pr.IsClosed() {
			return pull_model.ErrPullRequestClosed{ID: pr.ID}
		}
		reviewers, err := pull_model.GetReviewers(ctx, pr.ID)
		if err != nil {
			return err
		}
		assigned := false
		for _, r := range reviewers {
			if r.UserID == doer.ID {
				assigned = true
				break
			}
		}
		if !assigned {
			return util.ErrPermissionDenied
		}
		return pull_model.CastVote(ctx, pr, doer.ID, vote)
	})
	if err != nil {
		return err
	}
	notification.NotifyReviewPullRequest(ctx, doer, pr, vote)
	return nil
}
