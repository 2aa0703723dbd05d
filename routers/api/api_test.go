// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"code.mergebase.io/mergebase/models/db"
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	"code.mergebase.io/mergebase/models/unittest"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/json"
	"code.mergebase.io/mergebase/modules/structs"
	"code.mergebase.io/mergebase/modules/vcs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	unittest.PrepareTestDatabase(t)
	return Routes(Options{})
}

func seedFixtures(t *testing.T) (*user_model.User, *repo_model.Repository, *pull_model.PullRequest) {
	t.Helper()
	ctx := db.DefaultContext

	admin := &user_model.User{Name: "admin", Email: "admin@example.com", IsAdmin: true, IsActive: true}
	require.NoError(t, db.Insert(ctx, admin))

	repo := &repo_model.Repository{Name: "project", Backend: vcs.BackendGit, LandingRef: "master"}
	require.NoError(t, repo_model.CreateRepository(ctx, repo))

	pr := &pull_model.PullRequest{
		TargetRepoID:   repo.ID,
		SourceRepoID:   repo.ID,
		AuthorID:       admin.ID,
		Title:          "Initial work",
		Description:    "desc",
		State:          pull_model.StateCreated,
		Status:         pull_model.StatusNotReviewed,
		SourceRef:      vcs.Reference{Type: vcs.RefTypeBranch, Name: "feature", CommitID: "b"}.String(),
		TargetRef:      vcs.Reference{Type: vcs.RefTypeBranch, Name: "master", CommitID: "m1"}.String(),
		CommonAncestor: "m1",
		Revisions:      []string{"b"},
	}
	require.NoError(t, pull_model.CreatePullRequest(ctx, pr))
	return admin, repo, pr
}

func doRequest(t *testing.T, router http.Handler, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != "" {
		req.SetBasicAuth(user, "password")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)
	seedFixtures(t)

	recorder := doRequest(t, router, "GET", "/api/v1/repos/project", "", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(t, router, "GET", "/api/v1/repos/project", "ghost", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRepositoryNotFoundDoesNotLeak(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, _ := seedFixtures(t)

	// A reader without access gets the same 404 as for a missing repo.
	reader := &user_model.User{Name: "reader", Email: "reader@example.com", IsActive: true}
	require.NoError(t, db.Insert(context.Background(), reader))

	missing := doRequest(t, router, "GET", "/api/v1/repos/ghost-repo", admin.Name, "")
	denied := doRequest(t, router, "GET", "/api/v1/repos/"+repo.Name, reader.Name, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Contains(t, denied.Body.String(), "repository 'project' does not exist")
}

func TestUpdateTitleAndDescription(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, pr := seedFixtures(t)

	recorder := doRequest(t, router, "POST", "/api/v1/repos/"+repo.Name+"/pulls/1/update", admin.Name,
		`{"title": "New TITLE OF A PR", "description": "New DESC OF A PR"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var response structs.UpdatePullRequestResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Updated pull request `1`", response.Msg)
	assert.Equal(t, "New TITLE OF A PR", response.PullRequest.Title)
	assert.Equal(t, "New DESC OF A PR", response.PullRequest.Description)
	assert.Equal(t, []string{"b"}, response.PullRequest.Revisions)
	assert.Empty(t, response.UpdatedCommits.Added)

	reloaded, err := pull_model.GetPullRequestByID(db.DefaultContext, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, "New TITLE OF A PR", reloaded.Title)
}

func TestUpdateClosedPullRequest(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, pr := seedFixtures(t)
	require.NoError(t, pr.SetState(db.DefaultContext, pull_model.StateClosed))

	recorder := doRequest(t, router, "POST", "/api/v1/repos/"+repo.Name+"/pulls/1/update", admin.Name,
		`{"title": "nope"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "pull request '1' update failed, pull request is closed")
}

func TestUpdateUnknownPullRequest(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, _ := seedFixtures(t)

	recorder := doRequest(t, router, "POST", "/api/v1/repos/"+repo.Name+"/pulls/999/update", admin.Name, `{}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "pull request '999' does not exist")
}

func TestUpdateUnknownReviewer(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, _ := seedFixtures(t)

	recorder := doRequest(t, router, "POST", "/api/v1/repos/"+repo.Name+"/pulls/1/update", admin.Name,
		`{"reviewers": [{"username": "nobody"}]}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "user 'nobody' does not exist")
}

func TestCommentEditVersionConflict(t *testing.T) {
	router := newTestRouter(t)
	admin, repo, pr := seedFixtures(t)

	comment := &pull_model.Comment{
		RepoID:        repo.ID,
		PullRequestID: pr.ID,
		AuthorID:      admin.ID,
		Text:          "first",
	}
	require.NoError(t, pull_model.CreateComment(db.DefaultContext, comment))

	recorder := doRequest(t, router, "PATCH", "/api/v1/repos/"+repo.Name+"/pulls/1/comments/1", admin.Name,
		`{"text": "second", "version": 0}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	// A second edit with the stale version must be rejected.
	recorder = doRequest(t, router, "PATCH", "/api/v1/repos/"+repo.Name+"/pulls/1/comments/1", admin.Name,
		`{"text": "third", "version": 0}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreatePullRequestSvnBlocked(t *testing.T) {
	router := newTestRouter(t)
	admin, _, _ := seedFixtures(t)

	svnRepo := &repo_model.Repository{Name: "legacy", Backend: vcs.BackendSvn, LandingRef: "trunk"}
	require.NoError(t, repo_model.CreateRepository(db.DefaultContext, svnRepo))

	recorder := doRequest(t, router, "POST", "/api/v1/repos/legacy/pulls", admin.Name, `{"title": "x"}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
