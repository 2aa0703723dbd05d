// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package structs

// Reference represents a ref in the API
type Reference struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	CommitID string `json:"commit_id"`
}

// PullRequest represents a pull request in the API
type PullRequest struct {
	ID             int64          `json:"pull_request_id"`
	Title          string         `json:"title"`
	TitleSafe      string         `json:"title_safe"`
	Description    string         `json:"description"`
	State          string         `json:"state"`
	Status         string         `json:"status"`
	SourceRepo     string         `json:"source_repo"`
	TargetRepo     string         `json:"target_repo"`
	SourceRef      Reference      `json:"source_ref"`
	TargetRef      Reference      `json:"target_ref"`
	CommonAncestor string         `json:"common_ancestor"`
	Revisions      []string       `json:"revisions"`
	Author         *User          `json:"author"`
	MergeStatus    string         `json:"last_merge_status"`
	MergeMetadata  map[string]any `json:"last_merge_metadata"`
}

// CommitDelta represents an update_commits outcome in the API
type CommitDelta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Common  []string `json:"common"`
	Total   []string `json:"total"`
}

// MemberDelta represents a reviewer or observer change in the API
type MemberDelta struct {
	Added   []int64 `json:"added"`
	Removed []int64 `json:"removed"`
}

// UpdatePullRequestResponse is the response body of update_pull_request
type UpdatePullRequestResponse struct {
	Msg              string       `json:"msg"`
	PullRequest      *PullRequest `json:"pull_request"`
	UpdatedCommits   *CommitDelta `json:"updated_commits"`
	UpdatedReviewers *MemberDelta `json:"updated_reviewers"`
	UpdatedObservers *MemberDelta `json:"updated_observers"`
}

// MergePullRequestResponse is the response body of merge_pull_request
type MergePullRequestResponse struct {
	Possible           bool           `json:"possible"`
	Executed           bool           `json:"executed"`
	MergeRef           *Reference     `json:"merge_ref"`
	FailureReason      string         `json:"failure_reason"`
	Metadata           map[string]any `json:"metadata"`
	MergeStatusMessage string         `json:"merge_status_message"`
}

// Comment represents a comment in the API
type Comment struct {
	ID          int64  `json:"comment_id"`
	Author      *User  `json:"author"`
	Text        string `json:"text"`
	Kind        string `json:"kind"`
	Draft       bool   `json:"draft"`
	LastVersion int    `json:"version"`
	Immutable   bool   `json:"immutable"`
}
