// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"code.mergebase.io/mergebase/modules/cache"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	setting.InitWithDefaults()
}

func newTestServer(t *testing.T, handler func(env *envelope) *response) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env envelope
		require.NoError(t, msgpack.NewDecoder(r.Body).Decode(&env))
		resp := handler(&env)
		if resp.ID == "" {
			resp.ID = env.ID
		}
		data, err := msgpack.Marshal(resp)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
}

func TestCallRoundTrip(t *testing.T) {
	srv := newTestServer(t, func(env *envelope) *response {
		assert.Equal(t, "branches", env.Method)
		return &response{Result: map[string]any{"master": "deadbeef"}}
	})
	defer srv.Close()

	c := NewWithURL(srv.URL, 1)
	result, err := c.Call(context.Background(), vcs.BackendGit, &Wire{Path: "repo", RepoID: 1}, "branches")
	require.NoError(t, err)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", m["master"])
}

func TestCallHTTPErrorIsCommunicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWithURL(srv.URL, 1)
	_, err := c.Call(context.Background(), vcs.BackendGit, nil, "branches")
	assert.True(t, vcs.IsErrVCSCommunication(err))
}

func TestRemoteErrorMapping(t *testing.T) {
	tests := []struct {
		kind  string
		check func(error) bool
	}{
		{"abort", vcs.IsErrRepository},
		{"error", vcs.IsErrRepository},
		{"repo_locked", vcs.IsErrRepository},
		{"archive", vcs.IsErrImproperArchiveType},
		{"lookup", vcs.IsErrCommitDoesNotExist},
		{"requirement", vcs.IsErrRepositoryRequirement},
		{"url_error", vcs.IsErrVCSCommunication},
		{"subrepo_merge_error", vcs.IsErrSubrepoMerge},
		{"unhandled", vcs.IsErrRemoteUnhandled},
		{"something_else", vcs.IsErrRemoteUnhandled},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			err := mapRemoteError(&remoteError{KindVCS: tt.kind, Message: "m", Traceback: "tb"}, &Wire{Path: "r"})
			assert.True(t, tt.check(err), "kind %s mapped to %T", tt.kind, err)
		})
	}
}

func TestRemoteErrorKeepsTraceback(t *testing.T) {
	err := mapRemoteError(&remoteError{KindVCS: "abort", Message: "merge aborted", Traceback: "remote stack"}, nil)
	repoErr, ok := err.(vcs.ErrRepository)
	require.True(t, ok)
	assert.Equal(t, "remote stack", repoErr.Traceback)
}

func TestChunkReaderExactChunks(t *testing.T) {
	body := io.NopCloser(strings.NewReader("aaaabbbbcc"))
	r := newChunkReader(body, 4, nil)

	chunk, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), chunk)

	chunk, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("bbbb"), chunk)

	chunk, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("cc"), chunk)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderWriteTo(t *testing.T) {
	content := strings.Repeat("x", 16384*2+5)
	r := newChunkReader(io.NopCloser(strings.NewReader(content)), 16384, nil)
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, buf.String())
}

func TestCallStreamRejectsNonStreamMethod(t *testing.T) {
	c := NewWithURL("http://localhost:0", 1)
	_, err := c.CallStream(context.Background(), vcs.BackendGit, nil, "branches")
	assert.Error(t, err)
}

func TestPureMethodWhitelist(t *testing.T) {
	assert.True(t, IsPureMethod("branches"))
	assert.True(t, IsPureMethod("bulk_request"))
	assert.False(t, IsPureMethod("pull"))
	assert.False(t, IsPureMethod("strip"))
}

func TestInvalidateRegionDropsParameterizedEntries(t *testing.T) {
	require.NoError(t, cache.Init())

	calls := 0
	srv := newTestServer(t, func(env *envelope) *response {
		calls++
		return &response{Result: "deadbeef"}
	})
	defer srv.Close()

	c := NewWithURL(srv.URL, 1)
	wire := &Wire{Path: "repo", RepoID: 7, RepoStateUID: "uid-1"}

	_, err := c.CachedCall(context.Background(), vcs.BackendGit, wire, "revision", "feature")
	require.NoError(t, err)
	_, err = c.CachedCall(context.Background(), vcs.BackendGit, wire, "revision", "feature")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	InvalidateRegion(wire)

	_, err = c.CachedCall(context.Background(), vcs.BackendGit, wire, "revision", "feature")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
