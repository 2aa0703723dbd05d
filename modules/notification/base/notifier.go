// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package base defines the notifier interface implemented by every event
// subscriber.
package base

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
)

// Notifier defines an interface to notify receivers of platform events.
// Implementations must never fail the originating transaction.
type Notifier interface {
	Run()

	NotifyCreateRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository)
	NotifyDeleteRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository)
	NotifyPushCommits(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, branch string, commitIDs []string)
	NotifyPullRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository)

	NotifyCreatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest)
	NotifyUpdatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest)
	NotifyReviewPullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus)
	NotifyMergePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest)
	NotifyClosePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest)

	NotifyCreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment)
	NotifyEditComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment)
}
