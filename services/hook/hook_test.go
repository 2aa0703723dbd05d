// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package hook

import (
	"context"
	"testing"

	"code.mergebase.io/mergebase/models/unittest"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/setting"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	vcs_repo.Repository

	calls       []string
	failOn      vcs_repo.HookName
	lastExtras  map[string]any
	invalidated bool
}

func (f *fakeHandle) FireHook(ctx context.Context, name vcs_repo.HookName, extras map[string]any) error {
	f.calls = append(f.calls, string(name))
	f.lastExtras = extras
	if name == f.failOn {
		return errHookDenied
	}
	return nil
}

func (f *fakeHandle) InvalidateVCSCache() {
	f.invalidated = true
}

var errHookDenied = assert.AnError

func testExtras() *Extras {
	return &Extras{
		Username:   "admin",
		IP:         "10.0.0.5",
		RepoName:   "project",
		CommitIDs:  []string{"abc123"},
		BranchRefs: []string{"master"},
	}
}

func TestPushRunsHooksAroundOperation(t *testing.T) {
	unittest.PrepareTestDatabase(t)

	handle := &fakeHandle{}
	var ran bool
	err := Push(context.Background(), &user_model.User{Name: "admin"}, nil, handle, testExtras(), func(ctx context.Context) error {
		ran = true
		assert.Equal(t, []string{"pre_push"}, handle.calls)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, handle.invalidated)
	assert.Equal(t, []string{"pre_push", "post_push"}, handle.calls)
}

func TestPushPreHookAborts(t *testing.T) {
	unittest.PrepareTestDatabase(t)

	handle := &fakeHandle{failOn: vcs_repo.HookPrePush}
	var ran bool
	err := Push(context.Background(), &user_model.User{Name: "admin"}, nil, handle, testExtras(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)
	assert.False(t, handle.invalidated)
}

func TestExtrasCarryServerContext(t *testing.T) {
	unittest.PrepareTestDatabase(t)

	handle := &fakeHandle{}
	err := Pull(context.Background(), &user_model.User{Name: "reader"}, nil, handle, testExtras(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, "admin", handle.lastExtras["username"])
	assert.Equal(t, setting.Server.AppURL, handle.lastExtras["server_url"])
	assert.NotEmpty(t, handle.lastExtras["request_id"])
}
