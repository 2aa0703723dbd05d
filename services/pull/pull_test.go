// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"testing"

	"code.mergebase.io/mergebase/models/db"
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	"code.mergebase.io/mergebase/models/unittest"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVCS serves a canned commit graph. Commits are addressable by id and
// by ref name.
type fakeVCS struct {
	vcs_repo.Repository

	commits  map[string]*vcs.Commit
	refs     map[string]string // ref name -> commit id
	ancestor string
}

func (f *fakeVCS) IsEmpty(ctx context.Context) (bool, error) {
	return len(f.commits) == 0, nil
}

func (f *fakeVCS) GetCommit(ctx context.Context, idOrRef string) (*vcs.Commit, error) {
	id := idOrRef
	if mapped, ok := f.refs[idOrRef]; ok {
		id = mapped
	}
	c, ok := f.commits[id]
	if !ok {
		return nil, vcs.ErrCommitDoesNotExist{CommitID: idOrRef}
	}
	return c, nil
}

func (f *fakeVCS) GetCommonAncestor(ctx context.Context, commitID1, commitID2 string, otherRepo vcs_repo.Repository) (string, error) {
	return f.ancestor, nil
}

func commit(id string, parents ...string) *vcs.Commit {
	return &vcs.Commit{RawID: id, ParentIDs: parents}
}

func prepareService(t *testing.T) {
	t.Helper()
	unittest.PrepareTestDatabase(t)
	setting.Repository.ShadowRoot = t.TempDir()
}

// installFake routes OpenRepository to the given fakes by repository id.
func installFake(t *testing.T, fakes map[int64]vcs_repo.Repository) {
	t.Helper()
	orig := OpenRepository
	OpenRepository = func(ctx context.Context, r *repo_model.Repository) (vcs_repo.Repository, error) {
		return fakes[r.ID], nil
	}
	t.Cleanup(func() { OpenRepository = orig })
}

func seedPR(t *testing.T, ctx context.Context, fake *fakeVCS) (*user_model.User, *repo_model.Repository, *pull_model.PullRequest) {
	t.Helper()
	doer := &user_model.User{Name: "alice", Email: "alice@example.com", IsActive: true, IsAdmin: true}
	require.NoError(t, db.Insert(ctx, doer))
	r := &repo_model.Repository{Name: "project", Backend: vcs.BackendGit}
	require.NoError(t, repo_model.CreateRepository(ctx, r))
	installFake(t, map[int64]vcs_repo.Repository{r.ID: fake})

	pr, err := Create(ctx, doer, CreateOptions{
		SourceRepo: r,
		TargetRepo: r,
		SourceRef:  vcs.Reference{Type: vcs.RefTypeBranch, Name: "feature"},
		TargetRef:  vcs.Reference{Type: vcs.RefTypeBranch, Name: "master"},
		Title:      "initial title",
	})
	require.NoError(t, err)
	return doer, r, pr
}

// graph: m1 <- b (feature), master at m1
func baseGraph() *fakeVCS {
	return &fakeVCS{
		commits: map[string]*vcs.Commit{
			"m1": commit("m1"),
			"b":  commit("b", "m1"),
		},
		refs:     map[string]string{"feature": "b", "master": "m1"},
		ancestor: "m1",
	}
}

func TestComputeDelta(t *testing.T) {
	delta := computeDelta([]string{"b"}, []string{"c", "b"})
	assert.Equal(t, []string{"c"}, delta.Added)
	assert.Equal(t, []string{"b"}, delta.Common)
	assert.Empty(t, delta.Removed)
	assert.Equal(t, []string{"c", "b"}, delta.Total)

	delta = computeDelta([]string{"f2", "f1"}, []string{"f2", "f1"})
	assert.True(t, delta.Empty())
	assert.Equal(t, []string{"f2", "f1"}, delta.Common)
}

func TestCreateCapturesAncestorAndRevisions(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	_, _, pr := seedPR(t, ctx, baseGraph())

	assert.Equal(t, "m1", pr.CommonAncestor)
	assert.Equal(t, []string{"b"}, pr.Revisions)
	assert.Equal(t, pull_model.StateCreated, pr.State)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
}

func TestUpdateTitleDescription(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, _, pr := seedPR(t, ctx, baseGraph())

	title := "New TITLE OF A PR"
	desc := "New DESC OF A PR"
	result, err := Update(ctx, doer, pr, UpdateOptions{Title: &title, Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, title, result.PullRequest.Title)
	assert.Equal(t, desc, result.PullRequest.Description)
	assert.Equal(t, []string{"b"}, result.PullRequest.Revisions)
	assert.True(t, result.UpdatedCommits.Empty())
}

func TestUpdateCommitsAddsCommit(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	fake := baseGraph()
	doer, _, pr := seedPR(t, ctx, fake)

	// push c on top of the source branch
	fake.commits["c"] = commit("c", "b")
	fake.refs["feature"] = "c"

	result, err := Update(ctx, doer, pr, UpdateOptions{UpdateCommits: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, result.UpdatedCommits.Added)
	assert.Equal(t, []string{"b"}, result.UpdatedCommits.Common)
	assert.Empty(t, result.UpdatedCommits.Removed)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestUpdateCommitsNoChangeNoVersion(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, _, pr := seedPR(t, ctx, baseGraph())

	result, err := Update(ctx, doer, pr, UpdateOptions{UpdateCommits: true})
	require.NoError(t, err)
	assert.True(t, result.UpdatedCommits.Empty())
	assert.Equal(t, []string{"b"}, result.UpdatedCommits.Common)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
}

func TestUpdateCommitsForcePushRemoves(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	fake := &fakeVCS{
		commits: map[string]*vcs.Commit{
			"m1": commit("m1"),
			"f1": commit("f1", "m1"),
			"f2": commit("f2", "f1"),
			"m2": commit("m2", "m1"),
			"m3": commit("m3", "m2"),
		},
		refs:     map[string]string{"feature": "f2", "master": "m1"},
		ancestor: "m1",
	}
	doer, _, pr := seedPR(t, ctx, fake)
	assert.Equal(t, []string{"f2", "f1"}, pr.Revisions)

	// force-push drops f2
	fake.refs["feature"] = "f1"

	result, err := Update(ctx, doer, pr, UpdateOptions{UpdateCommits: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, result.UpdatedCommits.Removed)
	assert.Equal(t, []string{"f1"}, result.UpdatedCommits.Common)
	assert.Empty(t, result.UpdatedCommits.Added)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestUpdateCommitsTargetForcePushRemoves(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	fake := &fakeVCS{
		commits: map[string]*vcs.Commit{
			"m1": commit("m1"),
			"m2": commit("m2", "m1"),
			"m3": commit("m3", "m2"),
			"f1": commit("f1", "m1"),
			"f2": commit("f2", "f1"),
		},
		refs:     map[string]string{"feature": "f2", "master": "m3"},
		ancestor: "m1",
	}
	doer, _, pr := seedPR(t, ctx, fake)
	assert.Equal(t, []string{"f2", "f1"}, pr.Revisions)

	// force-push the target branch back to the ancestor
	fake.refs["master"] = "m1"

	result, err := Update(ctx, doer, pr, UpdateOptions{UpdateCommits: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m2"}, result.UpdatedCommits.Removed)
	assert.Equal(t, []string{"f2", "f1"}, result.UpdatedCommits.Common)
	assert.Empty(t, result.UpdatedCommits.Added)
	assert.Equal(t, []string{"f2", "f1"}, result.PullRequest.Revisions)

	latest, err := pull_model.LatestVersionNumber(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestUpdateClosedRejected(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, _, pr := seedPR(t, ctx, baseGraph())
	require.NoError(t, pr.SetState(ctx, pull_model.StateClosed))

	title := "nope"
	_, err := Update(ctx, doer, pr, UpdateOptions{Title: &title})
	assert.True(t, pull_model.IsErrPullRequestClosed(err))
}

func TestCloseIsTerminal(t *testing.T) {
	prepareService(t)
	ctx := context.Background()
	doer, _, pr := seedPR(t, ctx, baseGraph())

	require.NoError(t, Close(ctx, doer, pr, "not needed anymore"))
	assert.True(t, pr.IsClosed())

	err := Close(ctx, doer, pr, "")
	assert.True(t, pull_model.IsErrPullRequestClosed(err))
}
