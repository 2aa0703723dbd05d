// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package convert maps database entities to their API representations.
package convert

import (
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/structs"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/services/merge"
)

// ToUser converts a user to its API form. Nil stays nil.
func ToUser(u *user_model.User) *structs.User {
	if u == nil {
		return nil
	}
	return &structs.User{ID: u.ID, UserName: u.Name, FullName: u.FullName, Email: u.Email}
}

// ToRepository converts a repository to its API form.
func ToRepository(r *repo_model.Repository) *structs.Repository {
	if r == nil {
		return nil
	}
	return &structs.Repository{
		ID:          r.ID,
		Name:        r.Name,
		Backend:     string(r.Backend),
		LandingRef:  r.LandingRef,
		Description: r.Description,
	}
}

// ToReference converts a stored reference string to its API form. A
// malformed stored value converts to the zero reference.
func ToReference(stored string) structs.Reference {
	r, err := vcs.ParseReference(stored)
	if err != nil {
		return structs.Reference{}
	}
	return structs.Reference{Type: string(r.Type), Name: r.Name, CommitID: r.CommitID}
}

// ToPullRequest converts a pull request to its API form. author may be
// nil when the author row is unavailable.
func ToPullRequest(pr *pull_model.PullRequest, author *user_model.User) *structs.PullRequest {
	apiPR := &structs.PullRequest{
		ID:             pr.ID,
		Title:          pr.Title,
		TitleSafe:      pr.TitleSafe(),
		Description:    pr.Description,
		State:          string(pr.State),
		Status:         string(pr.Status),
		SourceRef:      ToReference(pr.SourceRef),
		TargetRef:      ToReference(pr.TargetRef),
		CommonAncestor: pr.CommonAncestor,
		Revisions:      pr.Revisions,
		Author:         ToUser(author),
		MergeStatus:    string(pr.LastMergeStatus),
		MergeMetadata:  pr.LastMergeMetadata,
	}
	if pr.SourceRepo != nil {
		apiPR.SourceRepo = pr.SourceRepo.Name
	}
	if pr.TargetRepo != nil {
		apiPR.TargetRepo = pr.TargetRepo.Name
	}
	return apiPR
}

// ToComment converts a comment to its API form.
func ToComment(c *pull_model.Comment, author *user_model.User) *structs.Comment {
	return &structs.Comment{
		ID:          c.ID,
		Author:      ToUser(author),
		Text:        c.Text,
		Kind:        string(c.Kind),
		Draft:       c.Draft,
		LastVersion: c.LastVersion,
		Immutable:   c.Immutable,
	}
}

// ToCommitDelta converts an update_commits outcome to its API form.
func ToCommitDelta(added, removed, common, total []string) *structs.CommitDelta {
	return &structs.CommitDelta{Added: added, Removed: removed, Common: common, Total: total}
}

// ToMemberDelta converts a reviewer or observer change to its API form.
func ToMemberDelta(d *pull_model.MemberDelta) *structs.MemberDelta {
	if d == nil {
		return &structs.MemberDelta{Added: []int64{}, Removed: []int64{}}
	}
	return &structs.MemberDelta{Added: d.Added, Removed: d.Removed}
}

// ToMergeResponse converts a merge engine response to its API form,
// including the user facing status message.
func ToMergeResponse(resp *merge.Response) *structs.MergePullRequestResponse {
	api := &structs.MergePullRequestResponse{
		Possible:           resp.Possible,
		Executed:           resp.Executed,
		FailureReason:      string(resp.FailureReason),
		Metadata:           resp.Metadata,
		MergeStatusMessage: resp.StatusMessage(),
	}
	if resp.MergeRef != nil {
		api.MergeRef = &structs.Reference{
			Type:     string(resp.MergeRef.Type),
			Name:     resp.MergeRef.Name,
			CommitID: resp.MergeRef.CommitID,
		}
	}
	return api
}
