// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package api exposes the pull request JSON API.
package api

import (
	"fmt"
	"net/http"

	"code.mergebase.io/mergebase/modules/exctrack"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/services/merge"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options wires the router's collaborators.
type Options struct {
	Engine     *merge.Engine
	Exceptions *exctrack.Store
}

// Routes builds the API router.
func Routes(opts Options) http.Handler {
	h := &handlers{engine: opts.Engine}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(recoverer(opts.Exceptions))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Auth)

		r.Route("/repos/{reponame}", func(r chi.Router) {
			r.Get("/", h.getRepository)
			r.Get("/archive/{commitish}", h.downloadArchive)

			r.Route("/pulls", func(r chi.Router) {
				r.Post("/", h.createPullRequest)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getPullRequest)
					r.Post("/update", h.updatePullRequest)
					r.Post("/merge", h.mergePullRequest)
					r.Post("/close", h.closePullRequest)
					r.Post("/vote", h.votePullRequest)

					r.Route("/comments", func(r chi.Router) {
						r.Get("/", h.listComments)
						r.Post("/", h.createComment)
						r.Patch("/{commentID}", h.editComment)
						r.Delete("/{commentID}", h.deleteComment)
						r.Post("/{commentID}/attachments", h.attachFile)
					})
				})
			})
		})
	})
	return r
}

// recoverer converts panics into 500 responses and records a snapshot of
// the failure when an exception store is configured.
func recoverer(store *exctrack.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err, ok := rec.(error)
				if !ok {
					err = &panicError{value: rec}
				}
				if store != nil {
					excID, recordErr := store.Record(err, exctrack.RequestInfo{
						ClientAddress: req.RemoteAddr,
						UserAgent:     req.UserAgent(),
						Method:        req.Method,
						URL:           req.URL.String(),
					})
					if recordErr == nil {
						log.Error("api: panic serving %s %s (exc_id %s): %v", req.Method, req.URL.Path, excID, err)
					}
				} else {
					log.Error("api: panic serving %s %s: %v", req.Method, req.URL.Path, err)
				}
				writeError(resp, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(resp, req)
		})
	}
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
