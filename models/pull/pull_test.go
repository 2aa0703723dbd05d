// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull_test

import (
	"context"
	"testing"

	pull_model "code.mergebase.io/mergebase/models/pull"
	"code.mergebase.io/mergebase/models/unittest"
	"code.mergebase.io/mergebase/modules/vcs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPR(t *testing.T, ctx context.Context) *pull_model.PullRequest {
	t.Helper()
	pr := &pull_model.PullRequest{
		SourceRepoID:    1,
		TargetRepoID:    1,
		SourceRef:       vcs.Reference{Type: vcs.RefTypeBranch, Name: "feature", CommitID: "aaa1"}.String(),
		TargetRef:       vcs.Reference{Type: vcs.RefTypeBranch, Name: "master", CommitID: "bbb1"}.String(),
		CommonAncestor:  "bbb1",
		Revisions:       []string{"aaa1"},
		Title:           "initial",
		AuthorID:        1,
		State:           pull_model.StateCreated,
		Status:          pull_model.StatusNotReviewed,
		LastMergeStatus: pull_model.MergeFailureNone,
	}
	require.NoError(t, pull_model.CreatePullRequest(ctx, pr))
	assert.NotZero(t, pr.ID)
	return pr
}

func TestTitleSafe(t *testing.T) {
	pr := &pull_model.PullRequest{Title: "{} {2} {foo}"}
	assert.Equal(t, "{{}} {{2}} {{foo}}", pr.TitleSafe())

	pr.Title = "no braces"
	assert.Equal(t, "no braces", pr.TitleSafe())
}

func TestVersionNumbering(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	pr := createTestPR(t, ctx)

	v1, err := pull_model.CreateVersion(ctx, pr)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Number)

	pr.Revisions = []string{"ccc1", "aaa1"}
	v2, err := pull_model.CreateVersion(ctx, pr)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Number)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	versions, err := pull_model.GetVersions(ctx, pr.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, []string{"aaa1"}, versions[0].Revisions)
	assert.Equal(t, []string{"ccc1", "aaa1"}, versions[1].Revisions)
}

func TestCommentOptimisticConcurrency(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	pr := createTestPR(t, ctx)

	c := &pull_model.Comment{
		RepoID:        pr.TargetRepoID,
		PullRequestID: pr.ID,
		AuthorID:      1,
		Text:          "first",
		Kind:          pull_model.CommentKindNote,
	}
	require.NoError(t, pull_model.CreateComment(ctx, c))

	updated, err := pull_model.UpdateComment(ctx, c.ID, 0, "second", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.LastVersion)
	assert.Equal(t, "second", updated.Text)

	// stale version must conflict
	_, err = pull_model.UpdateComment(ctx, c.ID, 0, "third", 1)
	assert.True(t, pull_model.IsErrCommentVersionMismatch(err))

	history, err := pull_model.GetCommentHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Text)
}

func TestCommentImmutable(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	pr := createTestPR(t, ctx)

	c := &pull_model.Comment{
		RepoID:        pr.TargetRepoID,
		PullRequestID: pr.ID,
		AuthorID:      1,
		Text:          "merge status",
		Immutable:     true,
	}
	require.NoError(t, pull_model.CreateComment(ctx, c))

	_, err := pull_model.UpdateComment(ctx, c.ID, 0, "changed", 1)
	assert.True(t, pull_model.IsErrCommentImmutable(err))
}

func TestValidateAttachment(t *testing.T) {
	assert.NoError(t, pull_model.ValidateAttachment("build.log", 128))
	assert.NoError(t, pull_model.ValidateAttachment("IMAGE.PNG", 128))

	err := pull_model.ValidateAttachment("exploit.exe", 128)
	assert.True(t, pull_model.IsErrAttachmentTypeNotAllowed(err))

	err = pull_model.ValidateAttachment("big.zip", 11*1024*1024)
	assert.True(t, pull_model.IsErrAttachmentTooLarge(err))
}

func TestSetReviewersDelta(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	pr := createTestPR(t, ctx)

	delta, err := pull_model.SetReviewers(ctx, pr.ID, []*pull_model.Reviewer{
		{UserID: 2, Mandatory: true},
		{UserID: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, delta.Added)
	assert.Empty(t, delta.Removed)

	delta, err = pull_model.SetReviewers(ctx, pr.ID, []*pull_model.Reviewer{
		{UserID: 3},
		{UserID: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, delta.Added)
	assert.Equal(t, []int64{2}, delta.Removed)
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name      string
		reviewers []*pull_model.Reviewer
		want      pull_model.ReviewStatus
	}{
		{"no votes", []*pull_model.Reviewer{{UserID: 1}}, pull_model.StatusNotReviewed},
		{"all approved", []*pull_model.Reviewer{
			{UserID: 1, Vote: pull_model.StatusApproved},
			{UserID: 2, Vote: pull_model.StatusApproved},
		}, pull_model.StatusApproved},
		{"any rejection wins", []*pull_model.Reviewer{
			{UserID: 1, Vote: pull_model.StatusApproved},
			{UserID: 2, Vote: pull_model.StatusRejected},
		}, pull_model.StatusRejected},
		{"mandatory pending blocks approval", []*pull_model.Reviewer{
			{UserID: 1, Vote: pull_model.StatusApproved},
			{UserID: 2, Mandatory: true},
		}, pull_model.StatusUnderReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pull_model.AggregateStatus(tc.reviewers))
		})
	}
}
