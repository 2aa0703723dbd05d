// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"testing"

	audit_model "code.mergebase.io/mergebase/models/audit"
	"code.mergebase.io/mergebase/models/db"
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/vcs"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"
	"code.mergebase.io/mergebase/modules/vcs/shadow"
	"code.mergebase.io/mergebase/services/audit"
	"code.mergebase.io/mergebase/services/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeableVCS extends the canned graph with everything the merge engine
// touches on the target and its shadow.
type mergeableVCS struct {
	fakeVCS

	branches      map[string]string
	mergeCommitID string
	pushCalled    bool
}

func (f *mergeableVCS) Backend() vcs.Backend { return vcs.BackendGit }
func (f *mergeableVCS) Path() string         { return "/srv/repos/project" }
func (f *mergeableVCS) RepoID() int64        { return 1 }

func (f *mergeableVCS) Branches(ctx context.Context) (map[string]string, error) {
	return f.branches, nil
}

func (f *mergeableVCS) CloneTo(ctx context.Context, destPath, branch string) error {
	return nil
}

func (f *mergeableVCS) GetShadowInstance(shadowPath string, withHooks bool) vcs_repo.Repository {
	return f
}

func (f *mergeableVCS) Pull(ctx context.Context, url string, commitIDs []string) error {
	return nil
}

func (f *mergeableVCS) Fetch(ctx context.Context, url string, commitIDs []string) error {
	return nil
}

func (f *mergeableVCS) ShadowMerge(ctx context.Context, opts vcs_repo.TrialMergeOptions) (string, error) {
	return f.mergeCommitID, nil
}

func (f *mergeableVCS) ShadowPush(ctx context.Context, targetPath string, refs []string) error {
	f.pushCalled = true
	return nil
}

func (f *mergeableVCS) InvalidateVCSCache() {}

func seedMergeablePR(t *testing.T, ctx context.Context) (*user_model.User, *pull_model.PullRequest, *mergeableVCS) {
	t.Helper()
	fake := &mergeableVCS{
		fakeVCS: fakeVCS{
			commits: map[string]*vcs.Commit{
				"m1": commit("m1"),
				"b":  commit("b", "m1"),
			},
			refs:     map[string]string{"feature": "b", "master": "m1"},
			ancestor: "m1",
		},
		branches:      map[string]string{"master": "m1", "feature": "b"},
		mergeCommitID: "feedc0de",
	}

	doer := &user_model.User{Name: "alice", Email: "alice@example.com", IsActive: true, IsAdmin: true}
	require.NoError(t, db.Insert(ctx, doer))
	r := &repo_model.Repository{Name: "project", Backend: vcs.BackendGit}
	require.NoError(t, repo_model.CreateRepository(ctx, r))
	require.Equal(t, int64(1), r.ID)
	installFake(t, map[int64]vcs_repo.Repository{r.ID: fake})

	pr, err := Create(ctx, doer, CreateOptions{
		SourceRepo: r,
		TargetRepo: r,
		SourceRef:  vcs.Reference{Type: vcs.RefTypeBranch, Name: "feature"},
		TargetRef:  vcs.Reference{Type: vcs.RefTypeBranch, Name: "master"},
		Title:      "mergeable",
	})
	require.NoError(t, err)
	pr.Status = pull_model.StatusApproved
	require.NoError(t, pr.UpdateCols(ctx, "status"))
	return doer, pr, fake
}

func TestMergeApprovedClosesWithOrderedEvents(t *testing.T) {
	prepareService(t)
	ctx := context.Background()

	notification.ResetNotifiers()
	notification.RegisterNotifier(audit.NewNotifier())
	t.Cleanup(notification.ResetNotifiers)

	doer, pr, fake := seedMergeablePR(t, ctx)
	engine := merge.NewEngine(shadow.NewManager())

	resp, err := Merge(ctx, doer, pr, engine, MergeOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Possible)
	assert.True(t, resp.Executed)
	require.NotNil(t, resp.MergeRef)
	assert.Equal(t, "pr-merge", resp.MergeRef.Name)
	assert.True(t, fake.pushCalled)
	assert.Equal(t, pull_model.StateClosed, pr.State)

	events, err := audit_model.GetEvents(ctx, pr.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		"repo.pull_request.create",
		"repo.pull_request.comment.create",
		"repo.pull_request.merge",
		"repo.pull_request.close",
	}, actions)
}

func TestMergeRequiresApproval(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, pr, fake := seedMergeablePR(t, ctx)
	pr.Status = pull_model.StatusUnderReview
	require.NoError(t, pr.UpdateCols(ctx, "status"))

	engine := merge.NewEngine(shadow.NewManager())
	resp, err := Merge(ctx, doer, pr, engine, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailureNotAllowed, resp.FailureReason)
	assert.False(t, fake.pushCalled)
}

func TestMergeDeniedWhenTargetMoved(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, pr, fake := seedMergeablePR(t, ctx)

	// target branch advances after the pull request was created
	fake.branches["master"] = "m2"

	engine := merge.NewEngine(shadow.NewManager())
	resp, err := Merge(ctx, doer, pr, engine, MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailureTargetIsNotHead, resp.FailureReason)

	ref, ok := resp.Metadata["target_ref"].(vcs.Reference)
	require.True(t, ok)
	assert.Equal(t, "m1", ref.CommitID)
	assert.Equal(t, pull_model.StateCreated, pr.State)
}

func TestDryRunDoesNotClose(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, pr, fake := seedMergeablePR(t, ctx)
	pr.Status = pull_model.StatusUnderReview
	require.NoError(t, pr.UpdateCols(ctx, "status"))

	engine := merge.NewEngine(shadow.NewManager())
	resp, err := Merge(ctx, doer, pr, engine, MergeOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, resp.Possible)
	assert.False(t, fake.pushCalled)
	assert.Equal(t, pull_model.StateCreated, pr.State)
	assert.Equal(t, pull_model.MergeFailureNone, pr.LastMergeStatus)
}
