// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"

	pull_model "code.mergebase.io/mergebase/models/pull"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/structs"
	"code.mergebase.io/mergebase/services/convert"
	"code.mergebase.io/mergebase/services/permission"
	pull_service "code.mergebase.io/mergebase/services/pull"

	"github.com/go-chi/chi/v5"
)

func commentID(req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "commentID"), 10, 64)
	return id, err == nil
}

func (h *handlers) listComments(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}
	comments, err := pull_model.GetComments(req.Context(), pr.ID)
	if err != nil {
		log.Error("GetComments %d: %v", pr.ID, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	apiComments := make([]*structs.Comment, 0, len(comments))
	for _, c := range comments {
		author, err := user_model.GetUserByID(req.Context(), c.AuthorID)
		if err != nil {
			author = nil
		}
		apiComments = append(apiComments, convert.ToComment(c, author))
	}
	writeJSON(resp, http.StatusOK, apiComments)
}

type createCommentPayload struct {
	Text              string `json:"text"`
	Kind              string `json:"kind"`
	Draft             bool   `json:"draft"`
	CommitID          string `json:"commit_id"`
	ResolvesCommentID int64  `json:"resolves_comment_id"`
	AnchorVersion     int    `json:"anchor_version"`
	AnchorPath        string `json:"anchor_path"`
	AnchorLine        int    `json:"anchor_line"`
}

func (h *handlers) createComment(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	pr := h.loadPullRequest(resp, req, repo)
	if pr == nil {
		return
	}

	var payload createCommentPayload
	if err := bindJSON(req, &payload); err != nil || payload.Text == "" {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := pull_model.CommentKind(payload.Kind)
	if kind == "" {
		kind = pull_model.CommentKindNote
	}

	comment := &pull_model.Comment{
		RepoID:            repo.ID,
		PullRequestID:     pr.ID,
		AuthorID:          Doer(req).ID,
		CommitID:          payload.CommitID,
		Text:              payload.Text,
		Kind:              kind,
		Draft:             payload.Draft,
		ResolvesCommentID: payload.ResolvesCommentID,
		AnchorVersion:     payload.AnchorVersion,
		AnchorPath:        payload.AnchorPath,
		AnchorLine:        payload.AnchorLine,
	}
	if err := pull_service.CreateComment(req.Context(), Doer(req), comment); err != nil {
		log.Error("CreateComment on %d: %v", pr.ID, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(resp, http.StatusCreated, convert.ToComment(comment, Doer(req)))
}

type editCommentPayload struct {
	Text    string `json:"text"`
	Version int    `json:"version"`
}

func (h *handlers) editComment(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	if pr := h.loadPullRequest(resp, req, repo); pr == nil {
		return
	}
	id, ok := commentID(req)
	if !ok {
		writeError(resp, http.StatusNotFound, "comment does not exist")
		return
	}

	var payload editCommentPayload
	if err := bindJSON(req, &payload); err != nil || payload.Text == "" {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := pull_service.EditComment(req.Context(), Doer(req), id, payload.Version, payload.Text)
	if err != nil {
		switch {
		case pull_model.IsErrCommentNotExist(err):
			writeError(resp, http.StatusNotFound, "comment does not exist")
		case pull_model.IsErrCommentVersionMismatch(err):
			writeError(resp, http.StatusConflict, "comment version mismatch")
		case pull_model.IsErrCommentImmutable(err):
			writeError(resp, http.StatusForbidden, "comment is immutable")
		case errorsIsPermissionDenied(err):
			writeError(resp, http.StatusForbidden, "access denied")
		default:
			log.Error("EditComment %d: %v", id, err)
			writeError(resp, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(resp, http.StatusOK, convert.ToComment(comment, Doer(req)))
}

func (h *handlers) deleteComment(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	if pr := h.loadPullRequest(resp, req, repo); pr == nil {
		return
	}
	id, ok := commentID(req)
	if !ok {
		writeError(resp, http.StatusNotFound, "comment does not exist")
		return
	}
	comment, err := pull_model.GetCommentByID(req.Context(), id)
	if err != nil {
		writeError(resp, http.StatusNotFound, "comment does not exist")
		return
	}

	doer := Doer(req)
	if comment.Immutable {
		writeError(resp, http.StatusForbidden, "comment is immutable")
		return
	}
	if comment.AuthorID != doer.ID && !doer.IsAdmin {
		allowed, err := permission.HasPerm(req.Context(), doer, repo, permission.ActionAdmin)
		if err != nil || !allowed {
			writeError(resp, http.StatusForbidden, "access denied")
			return
		}
	}
	if err := pull_model.DeleteComment(req.Context(), id); err != nil {
		log.Error("DeleteComment %d: %v", id, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	resp.WriteHeader(http.StatusNoContent)
}

type attachFilePayload struct {
	StoreUID string `json:"store_uid"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
}

func (h *handlers) attachFile(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	if pr := h.loadPullRequest(resp, req, repo); pr == nil {
		return
	}
	id, ok := commentID(req)
	if !ok {
		writeError(resp, http.StatusNotFound, "comment does not exist")
		return
	}

	var payload attachFilePayload
	if err := bindJSON(req, &payload); err != nil || payload.StoreUID == "" {
		writeError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	attachment, err := pull_service.AttachFile(req.Context(), id, payload.StoreUID, payload.Name, payload.Size)
	if err != nil {
		switch {
		case pull_model.IsErrCommentNotExist(err):
			writeError(resp, http.StatusNotFound, "comment does not exist")
		case pull_model.IsErrAttachmentTypeNotAllowed(err):
			writeError(resp, http.StatusBadRequest, "%v", err)
		case pull_model.IsErrAttachmentTooLarge(err):
			writeError(resp, http.StatusRequestEntityTooLarge, "%v", err)
		default:
			log.Error("AttachFile %d: %v", id, err)
			writeError(resp, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(resp, http.StatusCreated, map[string]any{
		"attachment_id": attachment.ID,
		"store_uid":     attachment.StoreUID,
		"name":          attachment.Name,
	})
}
