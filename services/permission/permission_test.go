// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package permission_test

import (
	"context"
	"testing"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/models/perm"
	repo_model "code.mergebase.io/mergebase/models/repo"
	unittest "code.mergebase.io/mergebase/models/unittest"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/services/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, ctx context.Context) (*user_model.User, *repo_model.Repository) {
	t.Helper()
	u := &user_model.User{Name: "bob", Email: "bob@example.com", IsActive: true}
	require.NoError(t, db.Insert(ctx, u))
	r := &repo_model.Repository{Name: "group/project", Backend: vcs.BackendGit}
	require.NoError(t, repo_model.CreateRepository(ctx, r))
	return u, r
}

func TestHasPerm(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	u, r := seed(t, ctx)

	ok, err := permission.HasPerm(ctx, u, r, permission.ActionRead)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, perm.GrantAccess(ctx, u.ID, r.ID, perm.AccessModeWrite))

	ok, err = permission.HasPerm(ctx, u, r, permission.ActionMerge)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = permission.HasPerm(ctx, u, r, permission.ActionAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	// inactive users have no permissions at all
	u.IsActive = false
	ok, err = permission.HasPerm(ctx, u, r, permission.ActionRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetBranchPerm(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()
	u, r := seed(t, ctx)

	require.NoError(t, perm.GrantAccess(ctx, u.ID, r.ID, perm.AccessModeWrite))

	// no rules: repo mode is the answer
	p, err := permission.GetBranchPerm(ctx, u, r, "master")
	require.NoError(t, err)
	assert.Equal(t, perm.BranchPermPush, p)

	// a matching rule narrows the ceiling
	require.NoError(t, db.Insert(ctx, &perm.BranchAccess{
		UserID: u.ID, RepoID: r.ID, Pattern: "release/*", Perm: perm.BranchPermRead,
	}))
	p, err = permission.GetBranchPerm(ctx, u, r, "release/1.0")
	require.NoError(t, err)
	assert.Equal(t, perm.BranchPermRead, p)

	// rules cannot raise above the repo mode
	require.NoError(t, db.Insert(ctx, &perm.BranchAccess{
		UserID: u.ID, RepoID: r.ID, Pattern: "master", Perm: perm.BranchPermPushForce,
	}))
	p, err = permission.GetBranchPerm(ctx, u, r, "master")
	require.NoError(t, err)
	assert.Equal(t, perm.BranchPermPush, p)
}
