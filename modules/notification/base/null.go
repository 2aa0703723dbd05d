// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package base

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
)

// NullNotifier implements a blank notifier for embedding, so subscribers
// only implement the events they care about.
type NullNotifier struct{}

var _ Notifier = &NullNotifier{}

// Run places a place holder function
func (*NullNotifier) Run() {}

func (*NullNotifier) NotifyCreateRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
}

func (*NullNotifier) NotifyDeleteRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
}

func (*NullNotifier) NotifyPushCommits(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, branch string, commitIDs []string) {
}

func (*NullNotifier) NotifyPullRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
}

func (*NullNotifier) NotifyCreatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
}

func (*NullNotifier) NotifyUpdatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
}

func (*NullNotifier) NotifyReviewPullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus) {
}

func (*NullNotifier) NotifyMergePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
}

func (*NullNotifier) NotifyClosePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
}

func (*NullNotifier) NotifyCreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
}

func (*NullNotifier) NotifyEditComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
}
