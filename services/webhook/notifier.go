// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package webhook

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/notification/base"
	"code.mergebase.io/mergebase/modules/structs"
	webhook_module "code.mergebase.io/mergebase/modules/webhook"
	"code.mergebase.io/mergebase/services/convert"
)

type webhookNotifier struct {
	base.NullNotifier
}

// NewNotifier creates a notifier that feeds the delivery queue.
func NewNotifier() base.Notifier {
	return &webhookNotifier{}
}

type eventPayload struct {
	EventName   string               `json:"event_name"`
	Actor       *structs.User        `json:"actor"`
	Repository  *structs.Repository  `json:"repository,omitempty"`
	PullRequest *structs.PullRequest `json:"pull_request,omitempty"`
	Comment     *structs.Comment     `json:"comment,omitempty"`
	Branch      string               `json:"branch,omitempty"`
	CommitIDs   []string             `json:"commit_ids,omitempty"`
}

func prEvent(ctx context.Context, event webhook_module.HookEventType, doer *user_model.User, pr *pull_model.PullRequest) {
	targetRef := convert.ToReference(pr.TargetRef)
	EnqueueEvent(ctx, pr.TargetRepoID, event, &eventPayload{
		EventName:   string(event),
		Actor:       convert.ToUser(doer),
		PullRequest: convert.ToPullRequest(pr, doer),
		Branch:      targetRef.Name,
		CommitIDs:   pr.Revisions,
	}, pr.ID, targetRef.Name, pr.Revisions)
}

func (*webhookNotifier) NotifyCreateRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	EnqueueEvent(ctx, repo.ID, webhook_module.HookEventRepoCreate, &eventPayload{
		EventName:  string(webhook_module.HookEventRepoCreate),
		Actor:      convert.ToUser(doer),
		Repository: convert.ToRepository(repo),
	}, 0, "", nil)
}

func (*webhookNotifier) NotifyDeleteRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	EnqueueEvent(ctx, repo.ID, webhook_module.HookEventRepoDelete, &eventPayload{
		EventName:  string(webhook_module.HookEventRepoDelete),
		Actor:      convert.ToUser(doer),
		Repository: convert.ToRepository(repo),
	}, 0, "", nil)
}

func (*webhookNotifier) NotifyPushCommits(ctx context.Context, doer *user_model.User, repo *repo_model.Repository, branch string, commitIDs []string) {
	EnqueueEvent(ctx, repo.ID, webhook_module.HookEventRepoPush, &eventPayload{
		EventName:  string(webhook_module.HookEventRepoPush),
		Actor:      convert.ToUser(doer),
		Repository: convert.ToRepository(repo),
		Branch:     branch,
		CommitIDs:  commitIDs,
	}, 0, branch, commitIDs)
}

func (*webhookNotifier) NotifyPullRepository(ctx context.Context, doer *user_model.User, repo *repo_model.Repository) {
	EnqueueEvent(ctx, repo.ID, webhook_module.HookEventRepoPull, &eventPayload{
		EventName:  string(webhook_module.HookEventRepoPull),
		Actor:      convert.ToUser(doer),
		Repository: convert.ToRepository(repo),
	}, 0, "", nil)
}

func (*webhookNotifier) NotifyCreatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	prEvent(ctx, webhook_module.HookEventPullRequestCreate, doer, pr)
}

func (*webhookNotifier) NotifyUpdatePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	prEvent(ctx, webhook_module.HookEventPullRequestUpdate, doer, pr)
}

func (*webhookNotifier) NotifyReviewPullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, vote pull_model.ReviewStatus) {
	prEvent(ctx, webhook_module.HookEventPullRequestReview, doer, pr)
}

func (*webhookNotifier) NotifyMergePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	prEvent(ctx, webhook_module.HookEventPullRequestMerge, doer, pr)
}

func (*webhookNotifier) NotifyClosePullRequest(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest) {
	prEvent(ctx, webhook_module.HookEventPullRequestClose, doer, pr)
}

func (*webhookNotifier) NotifyCreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	event := webhook_module.HookEventPullRequestComment
	if comment.PullRequestID == 0 {
		event = webhook_module.HookEventRepoCommitComment
	}
	EnqueueEvent(ctx, comment.RepoID, event, &eventPayload{
		EventName: string(event),
		Actor:     convert.ToUser(doer),
		Comment:   convert.ToComment(comment, doer),
	}, comment.PullRequestID, "", nil)
}

func (*webhookNotifier) NotifyEditComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) {
	event := webhook_module.HookEventPullRequestCommentEdit
	if comment.PullRequestID == 0 {
		event = webhook_module.HookEventRepoCommitEditComment
	}
	EnqueueEvent(ctx, comment.RepoID, event, &eventPayload{
		EventName: string(event),
		Actor:     convert.ToUser(doer),
		Comment:   convert.ToComment(comment, doer),
	}, comment.PullRequestID, "", nil)
}
