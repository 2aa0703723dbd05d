// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"testing"

	pull_model "code.mergebase.io/mergebase/models/pull"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/modules/vcs/repo"
	"code.mergebase.io/mergebase/modules/vcs/shadow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShadow is the handle the engine receives for the shadow workspace.
// Unstubbed methods panic through the embedded nil interface.
type fakeShadow struct {
	repo.Repository

	mergeCommitID string
	mergeErr      error
	pullErrs      map[string]error
	pushErr       error

	cleanupCalled bool
	pushCalled    bool
	pushedRefs    []string
}

func (f *fakeShadow) Pull(ctx context.Context, url string, commitIDs []string) error {
	if f.pullErrs != nil {
		return f.pullErrs[url]
	}
	return nil
}

func (f *fakeShadow) Fetch(ctx context.Context, url string, commitIDs []string) error {
	return nil
}

func (f *fakeShadow) ShadowMerge(ctx context.Context, opts repo.TrialMergeOptions) (string, error) {
	if f.mergeErr != nil {
		return "", f.mergeErr
	}
	return f.mergeCommitID, nil
}

func (f *fakeShadow) ShadowCleanup(ctx context.Context) error {
	f.cleanupCalled = true
	return nil
}

func (f *fakeShadow) ShadowPush(ctx context.Context, targetPath string, refs []string) error {
	f.pushCalled = true
	f.pushedRefs = refs
	return f.pushErr
}

func (f *fakeShadow) CreateCloseCommit(ctx context.Context, sourceRef vcs.Reference, message, name, email string) (string, error) {
	return "c105e" + sourceRef.CommitID, nil
}

type fakeTarget struct {
	repo.Repository

	backend     vcs.Backend
	path        string
	id          int64
	branches    map[string]string
	branchHeads []string
	shadow      *fakeShadow

	invalidated bool
}

func (f *fakeTarget) Backend() vcs.Backend { return f.backend }
func (f *fakeTarget) Path() string         { return f.path }
func (f *fakeTarget) RepoID() int64        { return f.id }

func (f *fakeTarget) Branches(ctx context.Context) (map[string]string, error) {
	return f.branches, nil
}

func (f *fakeTarget) BranchHeads(ctx context.Context, branch string) ([]string, error) {
	return f.branchHeads, nil
}

func (f *fakeTarget) CloneTo(ctx context.Context, destPath, branch string) error {
	return nil
}

func (f *fakeTarget) GetShadowInstance(shadowPath string, withHooks bool) repo.Repository {
	return f.shadow
}

func (f *fakeTarget) InvalidateVCSCache() { f.invalidated = true }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	setting.InitWithDefaults()
	setting.Repository.ShadowRoot = t.TempDir()
	return NewEngine(shadow.NewManager())
}

func gitTarget(headCommit string) *fakeTarget {
	return &fakeTarget{
		backend:  vcs.BackendGit,
		path:     "/srv/repos/project",
		id:       7,
		branches: map[string]string{"master": headCommit},
		shadow:   &fakeShadow{mergeCommitID: "feedc0de"},
	}
}

func testOptions(dryRun bool) Options {
	return Options{
		WorkspaceID: "pr-42",
		TargetRef:   vcs.Reference{Type: vcs.RefTypeBranch, Name: "master", CommitID: "t0t0t0"},
		SourceRepo:  &fakeTarget{backend: vcs.BackendGit, path: "/srv/repos/project-fork", id: 11},
		SourceRef:   vcs.Reference{Type: vcs.RefTypeBranch, Name: "feature", CommitID: "abcdef"},
		Message:     "merged feature",
		MergerName:  "Alice",
		MergerEmail: "alice@example.com",
		DryRun:      dryRun,
	}
}

func TestMergeTargetIsNotHead(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t1t1t1") // branch moved past t0t0t0

	resp, err := engine.Merge(context.Background(), target, testOptions(false))
	require.NoError(t, err)
	assert.False(t, resp.Possible)
	assert.False(t, resp.Executed)
	assert.Equal(t, pull_model.MergeFailureTargetIsNotHead, resp.FailureReason)

	ref, ok := resp.Metadata["target_ref"].(vcs.Reference)
	require.True(t, ok)
	assert.Equal(t, "t0t0t0", ref.CommitID)
}

func TestMergeHgMultipleHeads(t *testing.T) {
	engine := newTestEngine(t)
	target := &fakeTarget{
		backend:     vcs.BackendHg,
		path:        "/srv/repos/hgproject",
		id:          8,
		branchHeads: []string{"aaaa", "bbbb"},
	}

	resp, err := engine.Merge(context.Background(), target, testOptions(false))
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailureHgMultipleHeads, resp.FailureReason)
	assert.Equal(t, "aaaa\n,bbbb", resp.Metadata["heads"])
}

func TestMergeDryRunStopsBeforePush(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t0t0t0")

	resp, err := engine.Merge(context.Background(), target, testOptions(true))
	require.NoError(t, err)
	assert.True(t, resp.Possible)
	assert.True(t, resp.Executed)
	require.NotNil(t, resp.MergeRef)
	assert.Equal(t, vcs.MergeRefName, resp.MergeRef.Name)
	assert.Equal(t, "feedc0de", resp.MergeRef.CommitID)
	assert.Equal(t, pull_model.MergeFailureNone, resp.FailureReason)

	assert.False(t, target.shadow.pushCalled)
	assert.False(t, target.invalidated)
}

func TestMergeRealRunPushesAndInvalidates(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t0t0t0")

	resp, err := engine.Merge(context.Background(), target, testOptions(false))
	require.NoError(t, err)
	assert.True(t, resp.Executed)
	assert.True(t, target.shadow.pushCalled)
	assert.Equal(t, []string{"master"}, target.shadow.pushedRefs)
	assert.True(t, target.invalidated)
}

func TestMergeConflictReportsUnresolvedFiles(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t0t0t0")
	target.shadow.mergeErr = vcs.ErrUnresolvedFiles{Files: []string{"a.go", "b.go"}}

	resp, err := engine.Merge(context.Background(), target, testOptions(false))
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailureMergeFailed, resp.FailureReason)
	assert.Equal(t, "\n* conflict: a.go\n* conflict: b.go", resp.Metadata["unresolved_files"])
	assert.True(t, target.shadow.cleanupCalled)
}

func TestMergePushFailure(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t0t0t0")
	target.shadow.pushErr = vcs.ErrRepository{Message: "pre-receive hook declined"}

	resp, err := engine.Merge(context.Background(), target, testOptions(false))
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailurePushFailed, resp.FailureReason)
	assert.Equal(t, "git shadow repo", resp.Metadata["target"])
	assert.Equal(t, "feedc0de", resp.Metadata["merge_commit"])
	assert.False(t, target.invalidated)
}

func TestMergeMissingSourceRef(t *testing.T) {
	engine := newTestEngine(t)
	target := gitTarget("t0t0t0")
	target.shadow.pullErrs = map[string]error{
		"/srv/repos/other": vcs.ErrCommitDoesNotExist{CommitID: "abcdef"},
	}

	opts := testOptions(false)
	opts.SourceRepo = &fakeTarget{backend: vcs.BackendGit, path: "/srv/repos/other", id: 9}

	resp, err := engine.Merge(context.Background(), target, opts)
	require.NoError(t, err)
	assert.Equal(t, pull_model.MergeFailureMissingSourceRef, resp.FailureReason)
}

func TestFormatHeadsTruncation(t *testing.T) {
	heads := make([]string, 13)
	for i := range heads {
		heads[i] = "h"
	}
	got := formatHeads(heads)
	assert.Contains(t, got, "and 3 more")
}

func TestResponseStatusMessage(t *testing.T) {
	resp := failure(pull_model.MergeFailureMergeFailed, map[string]any{
		"unresolved_files": "\n* conflict: a.go",
	})
	assert.Contains(t, resp.StatusMessage(), "merge conflicts.\n* conflict: a.go")

	assert.Contains(t, success(vcs.Reference{}).StatusMessage(), "can be automatically merged")
}
