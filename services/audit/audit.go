// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package audit subscribes to platform events and journals them.
package audit

import (
	"context"

	audit_model "code.mergebase.io/mergebase/models/audit"
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification/base"
)

type auditNotifier struct {
	base.NullNotifier
}

// NewNotifier creates a notifier writing every event to the audit journal.
func NewNotifier() base.Notifier {
	return &auditNotifier{}
}

func record(ctx context.Context, e *audit_model.Event) {
	if err := audit_model.Record(ctx, e); err != nil {
		log.Error("Unable to record audit event %s: %v", e.Action, err)
	}
}

func (*auditNotifier) NotifyCreateRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	record(ctx, &audit_model.Event{Action: "repo.create", UserID: doer.ID, RepoID: repo.ID})
}

func (*auditNotifier) NotifyDeleteRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	record(ctx, &audit_model.Event{Action: "repo.delete", UserID: doer.ID, RepoID: repo.ID})
}

func (*auditNotifier) NotifyPushCommits(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, branch string, commitIDs []string) {
	record(ctx, &audit_model.Event{
		Action: "repo.push", UserID: doer.ID, RepoID: repo.ID,
		Data: map[string]any{"branch": branch, "commit_ids": commitIDs},
	})
}

func (*auditNotifier) NotifyCreatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.create", UserID: doer.ID, RepoID: pr.TargetRepoID, PullRequestID: pr.ID})
}

func (*auditNotifier) NotifyUpdatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.update", UserID: doer.ID, RepoID: pr.TargetRepoID, PullRequestID: pr.ID})
}

func (*auditNotifier) NotifyReviewPullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus) {
	record(ctx, &audit_model.Event{
		Action: "repo.pull_request.review", UserID: doer.ID, RepoID: pr.TargetRepoID, PullRequestID: pr.ID,
		Data: map[string]any{"vote": string(vote)},
	})
}

func (*auditNotifier) NotifyMergePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.merge", UserID: doer.ID, RepoID: pr.TargetRepoID, PullRequestID: pr.ID})
}

func (*auditNotifier) NotifyClosePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.close", UserID: doer.ID, RepoID: pr.TargetRepoID, PullRequestID: pr.ID})
}

func (*auditNotifier) NotifyCreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.comment.create", UserID: doer.ID, RepoID: comment.RepoID, PullRequestID: comment.PullRequestID})
}

func (*auditNotifier) NotifyEditComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	record(ctx, &audit_model.Event{Action: "repo.pull_request.comment.edit", UserID: doer.ID, RepoID: comment.RepoID, PullRequestID: comment.PullRequestID})
}
