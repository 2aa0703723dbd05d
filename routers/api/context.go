// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/json"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/util"
)

type contextKey int

const doerKey contextKey = iota

func contextWithDoer(ctx context.Context, doer *user_model.User) context.Context {
	return context.WithValue(ctx, doerKey, doer)
}

// Doer returns the authenticated user attached by the auth middleware.
func Doer(req *http.Request) *user_model.User {
	doer, _ := req.Context().Value(doerKey).(*user_model.User)
	return doer
}

// Auth resolves the request user from basic auth credentials. Requests
// without a resolvable user are rejected before any handler runs.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		name, _, ok := req.BasicAuth()
		if !ok {
			writeError(resp, http.StatusForbidden, "access denied")
			return
		}
		doer, err := user_model.GetUserByName(req.Context(), name)
		if err != nil || !doer.IsActive {
			writeError(resp, http.StatusForbidden, "access denied")
			return
		}
		ctx := contextWithDoer(req.Context(), doer)
		next.ServeHTTP(resp, req.WithContext(ctx))
	})
}

func writeJSON(resp http.ResponseWriter, status int, v any) {
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	if err := json.NewEncoder(resp).Encode(v); err != nil {
		log.Error("api: write response: %v", err)
	}
}

func writeError(resp http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(resp, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func bindJSON(req *http.Request, v any) error {
	if req.Body == nil || req.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(req.Body).Decode(v)
}

func errorsIsPermissionDenied(err error) bool {
	return errors.Is(err, util.ErrPermissionDenied)
}
