// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package webhook defines the stable webhook event vocabulary.
package webhook

// HookEventType is the closed set of webhook event names.
type HookEventType string

const (
	HookEventRepoPreCreate          HookEventType = "repo-pre-create"
	HookEventRepoCreate             HookEventType = "repo-create"
	HookEventRepoPreDelete          HookEventType = "repo-pre-delete"
	HookEventRepoDelete             HookEventType = "repo-delete"
	HookEventRepoPrePull            HookEventType = "repo-pre-pull"
	HookEventRepoPull               HookEventType = "repo-pull"
	HookEventRepoPrePush            HookEventType = "repo-pre-push"
	HookEventRepoPush               HookEventType = "repo-push"
	HookEventRepoCommitComment      HookEventType = "repo-commit-comment"
	HookEventRepoCommitEditComment  HookEventType = "repo-commit-edit-comment"
	HookEventPullRequestCreate      HookEventType = "pullrequest-create"
	HookEventPullRequestClose       HookEventType = "pullrequest-close"
	HookEventPullRequestUpdate      HookEventType = "pullrequest-update"
	HookEventPullRequestReview      HookEventType = "pullrequest-review"
	HookEventPullRequestMerge       HookEventType = "pullrequest-merge"
	HookEventPullRequestComment     HookEventType = "pullrequest-comment"
	HookEventPullRequestCommentEdit HookEventType = "pullrequest-comment-edit"
)

// AllEvents lists every event name.
func AllEvents() []HookEventType {
	return []HookEventType{
		HookEventRepoPreCreate, HookEventRepoCreate,
		HookEventRepoPreDelete, HookEventRepoDelete,
		HookEventRepoPrePull, HookEventRepoPull,
		HookEventRepoPrePush, HookEventRepoPush,
		HookEventRepoCommitComment, HookEventRepoCommitEditComment,
		HookEventPullRequestCreate, HookEventPullRequestClose,
		HookEventPullRequestUpdate, HookEventPullRequestReview,
		HookEventPullRequestMerge, HookEventPullRequestComment,
		HookEventPullRequestCommentEdit,
	}
}

// IsValid reports whether the name belongs to the closed set.
func (t HookEventType) IsValid() bool {
	for _, e := range AllEvents() {
		if e == t {
			return true
		}
	}
	return false
}
