// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"strings"

	repo_model "code.mergebase.io/mergebase/models/repo"
	"code.mergebase.io/mergebase/modules/archive"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/services/convert"
	"code.mergebase.io/mergebase/services/permission"
	pull_service "code.mergebase.io/mergebase/services/pull"

	"github.com/go-chi/chi/v5"
)

// loadRepository resolves {reponame} and enforces read access. Missing
// repositories and denied access both answer 404 so existence never leaks.
func (h *handlers) loadRepository(resp http.ResponseWriter, req *http.Request) *repo_model.Repository {
	name := chi.URLParam(req, "reponame")
	repo, err := repo_model.GetRepositoryByName(req.Context(), name)
	if err != nil {
		if !repo_model.IsErrRepoNotExist(err) {
			log.Error("GetRepositoryByName %s: %v", name, err)
		}
		writeError(resp, http.StatusNotFound, "repository '%s' does not exist", name)
		return nil
	}
	allowed, err := permission.HasPerm(req.Context(), Doer(req), repo, permission.ActionRead)
	if err != nil {
		log.Error("HasPerm %s: %v", name, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return nil
	}
	if !allowed {
		writeError(resp, http.StatusNotFound, "repository '%s' does not exist", name)
		return nil
	}
	return repo
}

func (h *handlers) getRepository(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}
	writeJSON(resp, http.StatusOK, convert.ToRepository(repo))
}

// archiveKinds maps the download extension to the backend format name.
var archiveKinds = map[archive.Type]string{
	archive.ZIP:    "zip",
	archive.TARGZ:  "tgz",
	archive.TARBZ2: "tbz2",
}

func (h *handlers) downloadArchive(resp http.ResponseWriter, req *http.Request) {
	repo := h.loadRepository(resp, req)
	if repo == nil {
		return
	}

	commitish := chi.URLParam(req, "commitish")
	var typ archive.Type
	for candidate := range archiveKinds {
		if strings.HasSuffix(commitish, string(candidate)) {
			typ = candidate
			break
		}
	}
	if typ == "" {
		writeError(resp, http.StatusBadRequest, "unknown archive type in '%s'", commitish)
		return
	}
	commitish = strings.TrimSuffix(commitish, string(typ))

	handle, err := pull_service.OpenRepository(req.Context(), repo)
	if err != nil {
		log.Error("OpenRepository %s: %v", repo.Name, err)
		writeError(resp, http.StatusInternalServerError, "internal error")
		return
	}
	commit, err := handle.GetCommit(req.Context(), commitish)
	if err != nil {
		writeError(resp, http.StatusNotFound, "commit '%s' does not exist", commitish)
		return
	}

	name := archive.FileName(archive.Options{
		RepoName: repo.Name,
		CommitID: commit.RawID,
		Path:     req.URL.Query().Get("path"),
		Plain:    req.URL.Query().Get("plain") == "true",
		Type:     typ,
	})
	resp.Header().Set("Content-Type", "application/octet-stream")
	resp.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := handle.StreamArchive(req.Context(), resp, commit.RawID, archiveKinds[typ], repo.Name); err != nil {
		log.Error("StreamArchive %s@%s: %v", repo.Name, commit.RawID, err)
	}
}
