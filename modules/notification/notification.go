// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package notification fans platform events out to registered notifiers.
package notification

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/notification/base"
)

var notifiers []base.Notifier

// RegisterNotifier providers method to receive notify messages
func RegisterNotifier(notifier base.Notifier) {
	go notifier.Run()
	notifiers = append(notifiers, notifier)
}

// ResetNotifiers removes all registered notifiers. Test helper.
func ResetNotifiers() {
	notifiers = nil
}

// NotifyCreateRepository notifies create repository to notifiers
func NotifyCreateRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	for _, notifier := range notifiers {
		notifier.NotifyCreateRepository(ctx, doer, repo)
	}
}

// NotifyDeleteRepository notifies delete repository to notifiers
func NotifyDeleteRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	for _, notifier := range notifiers {
		notifier.NotifyDeleteRepository(ctx, doer, repo)
	}
}

// NotifyPushCommits notifies commits pushed to notifiers
func NotifyPushCommits(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, branch string, commitIDs []string) {
	for _, notifier := range notifiers {
		notifier.NotifyPushCommits(ctx, doer, repo, branch, commitIDs)
	}
}

// NotifyPullRepository notifies a repository pull to notifiers
func NotifyPullRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	for _, notifier := range notifiers {
		notifier.NotifyPullRepository(ctx, doer, repo)
	}
}

// NotifyCreatePullRequest notifies create pull request to notifiers
func NotifyCreatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	for _, notifier := range notifiers {
		notifier.NotifyCreatePullRequest(ctx, doer, pr)
	}
}

// NotifyUpdatePullRequest notifies update pull request to notifiers
func NotifyUpdatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	for _, notifier := range notifiers {
		notifier.NotifyUpdatePullRequest(ctx, doer, pr)
	}
}

// NotifyReviewPullRequest notifies a review vote to notifiers
func NotifyReviewPullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus) {
	for _, notifier := range notifiers {
		notifier.NotifyReviewPullRequest(ctx, doer, pr, vote)
	}
}

// NotifyMergePullRequest notifies merge pull request to notifiers
func NotifyMergePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	for _, notifier := range notifiers {
		notifier.NotifyMergePullRequest(ctx, doer, pr)
	}
}

// NotifyClosePullRequest notifies close pull request to notifiers
func NotifyClosePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	for _, notifier := range notifiers {
		notifier.NotifyClosePullRequest(ctx, doer, pr)
	}
}

// NotifyCreateComment notifies comment creation to notifiers
func NotifyCreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	for _, notifier := range notifiers {
		notifier.NotifyCreateComment(ctx, doer, comment)
	}
}

// NotifyEditComment notifies comment edit to notifiers
func NotifyEditComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	for _, notifier := range notifiers {
		notifier.NotifyEditComment(ctx, doer, comment)
	}
}
