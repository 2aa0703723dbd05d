// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pull orchestrates the pull request lifecycle: create, update,
// close and merge.
package pull

import (
	"context"
	"sync"

	repo_model "code.mergebase.io/mergebase/models/repo"
	"code.mergebase.io/mergebase/modules/vcs/client"
	vcs_repo "code.mergebase.io/mergebase/modules/vcs/repo"
)

var (
	sharedClient     *client.Client
	sharedClientOnce sync.Once
)

func vcsClient() *client.Client {
	sharedClientOnce.Do(func() {
		sharedClient = client.New()
	})
	return sharedClient
}

// OpenRepository binds a stored repository to its VCS handle. Package
// variable so tests can substitute fakes.
var OpenRepository = func(ctx context.Context, r *repo_model.Repository) (vcs_repo.Repository, error) {
	return vcs_repo.New(vcsClient(), r.Backend, r.RepoPath(), r.ID)
}
