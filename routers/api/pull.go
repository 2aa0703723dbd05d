// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"strconv"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/structs"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/services/convert"
	"code.mergebase.io/mergebase/services/merge"
	"code.mergebase.io/mergebase/services/permission"
	pull_service "code.mergebase.io/mergebase/services/pull"

	"github.com/go-chi/chi/v5"
)

type handlers struct {
	engine *merge.Engine
}

// loadPullRequest resolves {id} within the routed repository. Unknown ids
// and ids belonging to other repositories both answer the same 404.
func (h *handlers) loadPullRequest(resp http.ResponseWriter, req *http.Request, repo *repo_model.Repository) *pull_model.PullRequest {
	idStr := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(resp, http.StatusNotFound, "pull request '%s' does not exist", idStr)
		return nil
	}
	pr, err := pull_model.GetPullRequestByID(req.Context(), id)
	if err != nil || pr.TargetRepoID != repo.ID {
		if err != nil && !pull_model.IsErrPullRequestNotExist(err) {
			log.Error("GetPullRequestByID %d: %v", id, err)
		}
		writeError(resp, http.StatusNotFound, "pull request '%d' does not exist", id)
		return nil
	}
	if err := pr.LoadRepositories(req.Context()); err != nil {
		log.Error("LoadRepositories %d: %v", id, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return nil
	}
	return pr
}

type reviewerPayload struct {
	Username  string   `json:"username"`
	Mandatory bool     `json:"mandatory"`
	Role      string   `json:"role"`
	Reasons   []string `json:"reasons"`
}

// resolveReviewers maps reviewer payloads to rows, failing on the first
// unknown username.
func resolveReviewers(req *http.Request, payloads []reviewerPayload) ([]*pull_model.Reviewer, string, error) {
	reviewers := make([]*pull_model.Reviewer, 0, len(payloads))
	for _, p := range payloads {
		u, err := user_model.GetUserByName(req.Context(), p.Username)
		if err != nil {
			return nil, p.Username, err
		}
		role := pull_model.ReviewerRole(p.Role)
		if role == "" {
			role = pull_model.RoleReviewer
		}
		reviewers = append(reviewers, &pull_model.Reviewer{
			UserID:    u.ID,
			Mandatory: p.Mandatory,
			Role:      role,
			Reasons:   p.Reasons,
		})
	}
	return reviewers, "", nil
}

func resolveObservers(req *http.Request, names []string) ([]int64, string, error) {
	users, err := user_model.GetUsersByNames(req.Context(), names)
	if err != nil {
		for _, name := range names {
			if _, uerr := user_model.GetUserByName(req.Context(), name); uerr != nil {
				return nil, name, uerr
			}
		}
		return nil, "", err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, "", nil
}

type createPullRequestPayload struct {
	SourceRepo  string            `json:"source_repo"`
	SourceRef   structs.Reference `json:"source_ref"`
	TargetRef   structs.Reference `json:"target_ref"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Reviewers   []reviewerPayload `json:"reviewers"`
	Observers   []string          `json:"observers"`
}

func (h *handlers) createPullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	// Pull requests are a Git and Hg feature; for Subversion this URL
	// does not exist at all.
	if !repo.Backend.SupportsPullRequests() {
		http.NotFound(resp, req)
		return
	}

	var payload createPullRequestPayload
	if err := bindJSON(req, &payload); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	sourceRepo := repo
	if payload.SourceRepo != "" && payload.SourceRepo != repo.Name {
		var err error
		sourceRepo, err = repo_model.GetRepositoryByName(req.Context(), payload.SourceRepo)
		if err != nil {
			writeError(resp, http.StatusNotFound, "repository '%s' does not exist", payload.SourceRepo)
			return
		}
	}

	allowed, err := permission.HasPerm(req.Context(), Doer(req), repo, permission.ActionWrite)
	if err != nil {
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	if !allowed {
		writeError(resp, http.StatusForbidden, "access denied")
		return
	}

	reviewers, missing, err := resolveReviewers(req, payload.Reviewers)
	if err != nil {
		writeError(resp, http.StatusBadRequest, "user '%s' does not exist", missing)
		return
	}
	observers, missing, err := resolveObservers(req, payload.Observers)
	if err != nil {
		writeError(resp, http.StatusBadRequest, "user '%s' does not exist", missing)
		return
	}

	pr, err := pull_service.Create(req.Context(), Doer(req), pull_service.CreateOptions{
		SourceRepo:  sourceRepo,
		TargetRepo:  repo,
		SourceRef:   toVCSRef(payload.SourceRef),
		TargetRef:   toVCSRef(payload.TargetRef),
		Title:       payload.Title,
		Description: payload.Description,
		Reviewers:   reviewers,
		Observers:   observers,
	})
	if err != nil {
		if pull_service.IsErrPullRequestsUnsupported(err) {
			http.NotFound(resp, req)
			return
		}
		writeError(resp, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(resp, http.StatusCreated, convert.ToPullRequest(pr, Doer(req)))
}

func (h *handlers) getPullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}
	author, err := user_model.GetUserByID(req.Context(), pr.AuthorID)
	if err != nil {
		author = nil
	}
	writeJSON(resp, http.StatusOK, convert.ToPullRequest(pr, author))
}

type updatePullRequestPayload struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Reviewers     []reviewerPayload `json:"reviewers"`
	Observers     []string          `json:"observers"`
	UpdateCommits bool              `json:"update_commits"`
}

func (h *handlers) updatePullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}

	doer := Doer(req)
	if doer.ID != pr.AuthorID {
		allowed, err := permission.HasPerm(req.Context(), doer, repo, permission.ActionWrite)
		if err != nil {
			writeError(resp, http.StatusInternalServerError, "internal error")
			return
		}
		if !allowed {
			writeError(resp, http.StatusForbidden, "pull request '%d' update failed, no permission to update", pr.ID)
			return
		}
	}

	var payload updatePullRequestPayload
	if err := bindJSON(req, &payload); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := pull_service.UpdateOptions{
		Title:         payload.Title,
		Description:   payload.Description,
		UpdateCommits: payload.UpdateCommits,
	}
	if payload.Reviewers != nil {
		reviewers, missing, err := resolveReviewers(req, payload.Reviewers)
		if err != nil {
			writeError(resp, http.StatusBadRequest, "user '%s' does not exist", missing)
			return
		}
		opts.Reviewers = reviewers
	}
	if payload.Observers != nil {
		observers, missing, err := resolveObservers(req, payload.Observers)
		if err != nil {
			writeError(resp, http.StatusBadRequest, "user '%s' does not exist", missing)
			return
		}
		opts.Observers = observers
	}

	result, err := pull_service.Update(req.Context(), doer, pr, opts)
	if err != nil {
		if pull_model.IsErrPullRequestClosed(err) {
			writeError(resp, http.StatusConflict, "pull request '%d' update failed, pull request is closed", pr.ID)
			return
		}
		log.Error("Update pull request %d: %v", pr.ID, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}

	delta := result.UpdatedCommits
	writeJSON(resp, http.StatusOK, &structs.UpdatePullRequestResponse{
		Msg:              fmt.Sprintf("Updated pull request `%d`", pr.ID),
		PullRequest:      convert.ToPullRequest(result.PullRequest, doer),
		UpdatedCommits:   convert.ToCommitDelta(delta.Added, delta.Removed, delta.Common, delta.Total),
		UpdatedReviewers: convert.ToMemberDelta(result.UpdatedReviewers),
		UpdatedObservers: convert.ToMemberDelta(result.UpdatedObservers),
	})
}

type mergePullRequestPayload struct {
	Message     string `json:"message"`
	DryRun      bool   `json:"dry_run"`
	UseRebase   bool   `json:"use_rebase"`
	CloseBranch bool   `json:"close_branch"`
}

func (h *handlers) mergePullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}

	var payload mergePullRequestPayload
	if err := bindJSON(req, &payload); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := pull_service.Merge(req.Context(), Doer(req), pr, h.engine, pull_service.MergeOptions{
		Message:     payload.Message,
		DryRun:      payload.DryRun,
		UseRebase:   payload.UseRebase,
		CloseBranch: payload.CloseBranch,
	})
	if err != nil {
		log.Error("Merge pull request %d: %v", pr.ID, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(resp, http.StatusOK, convert.ToMergeResponse(response))
}

type closePullRequestPayload struct {
	Message string `json:"message"`
}

func (h *handlers) closePullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}

	var payload closePullRequestPayload
	if err := bindJSON(req, &payload); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := pull_service.Close(req.Context(), Doer(req), pr, payload.Message); err != nil {
		switch {
		case pull_model.IsErrPullRequestClosed(err):
			writeError(resp, http.StatusConflict, "pull request '%d' is closed", pr.ID)
		case errorsIsPermissionDenied(err):
			writeError(resp, http.StatusNotFound, "pull request '%d' does not exist", pr.ID)
		default:
			log.Error("Close pull request %d: %v", pr.ID, err)
			writeError(resp, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(resp, http.StatusOK, convert.ToPullRequest(pr, Doer(req)))
}

type votePayload struct {
	Vote string `json:"vote"`
}

func (h *handlers) votePullRequest(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}

	var payload votePayload
	if err := bindJSON(req, &payload); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}
	vote := pull_model.ReviewStatus(payload.Vote)
	if vote != pull_model.StatusApproved && vote != pull_model.StatusRejected && vote != pull_model.StatusUnderReview {
		writeError(resp, http.StatusBadRequest, "invalid vote '%s'", payload.Vote)
		return
	}

	if err := pull_service.Vote(req.Context(), Doer(req), pr, vote); err != nil {
		switch {
		case pull_model.IsErrPullRequestClosed(err):
			writeError(resp, http.StatusConflict, "pull request '%d' is closed", pr.ID)
		case errorsIsPermissionDenied(err):
			writeError(resp, http.StatusForbidden, "access denied")
		default:
			log.Error("Vote pull request %d: %v", pr.ID, err)
			writeError(resp, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(resp, http.StatusOK, map[string]string{"status": string(pr.Status)})
}

func toVCSRef(r structs.Reference) vcs.Reference {
	return vcs.Reference{Type: vcs.RefType(r.Type), Name: r.Name, CommitID: r.CommitID}
}
