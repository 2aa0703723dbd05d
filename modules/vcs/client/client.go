// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package client implements the transport to the out-of-process VCS server.
//
// Every repository operation in the system funnels through one Client. Calls
// are MessagePack-encoded envelopes POSTed to the backend endpoint; streaming
// methods (those with the "stream:" prefix) read the chunked response body
// without ever buffering it whole. The client never retries: transport
// failures are fatal to the call and the decision to retry belongs to the
// caller.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ConfigItem is one (section, key, value) triple sent with every call
type ConfigItem struct {
	Section string
	Key     string
	Value   string
}

// Wire identifies the repository a call operates on. Context is the opaque
// per-handle token the server uses to cache repository objects between
// calls; rotating it (see RepoStateUID) invalidates the server-side object.
type Wire struct {
	Path         string       `msgpack:"path"`
	RepoID       int64        `msgpack:"repo_id"`
	Config       []ConfigItem `msgpack:"config"`
	RepoStateUID string       `msgpack:"repo_state_uid"`
	Context      string       `msgpack:"context"`
}

type envelope struct {
	ID     string `msgpack:"id"`
	Method string `msgpack:"method"`
	Wire   *Wire  `msgpack:"wire,omitempty"`
	Params []any  `msgpack:"params"`
}

type remoteError struct {
	Type      string `msgpack:"type"`
	Message   string `msgpack:"message"`
	KindVCS   string `msgpack:"_vcs_kind"`
	Traceback string `msgpack:"traceback"`
	OrgExc    string `msgpack:"org_exc"`
	OrgExcTB  string `msgpack:"org_exc_tb"`
}

type response struct {
	ID     string       `msgpack:"id"`
	Result any          `msgpack:"result"`
	Error  *remoteError `msgpack:"error"`
}

// Client talks to one VCS server
type Client struct {
	baseURL string
	pool    *connPool
}

// New creates a client against the configured VCS server URL with a
// connection pool sized for the worker count.
func New() *Client {
	return NewWithURL(setting.VCS.ServerURL, setting.VCS.PoolSize)
}

// NewWithURL creates a client against an explicit server URL
func NewWithURL(baseURL string, poolSize int) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		pool:    newConnPool(poolSize, setting.VCS.Timeout),
	}
}

func (c *Client) endpoint(backend vcs.Backend) string {
	return fmt.Sprintf("%s/%s", c.baseURL, backend)
}

// Call executes method against the repository identified by wire and decodes
// the result into a generic value.
func (c *Client) Call(ctx context.Context, backend vcs.Backend, wire *Wire, method string, params ...any) (any, error) {
	if params == nil {
		params = []any{}
	}
	env := envelope{
		ID:     uuid.NewString(),
		Method: method,
		Wire:   wire,
		Params: params,
	}

	body, release, err := c.post(ctx, c.endpoint(backend), &env)
	if err != nil {
		return nil, err
	}
	defer release()
	defer body.Close()

	var resp response
	if err := msgpack.NewDecoder(body).Decode(&resp); err != nil {
		return nil, vcs.ErrVCSCommunication{URL: c.baseURL, Err: fmt.Errorf("undecodable response for %s: %w", method, err)}
	}
	if resp.ID != env.ID {
		return nil, vcs.ErrVCSCommunication{URL: c.baseURL, Err: fmt.Errorf("response id mismatch for %s: sent %s, got %s", method, env.ID, resp.ID)}
	}
	if resp.Error != nil {
		return nil, mapRemoteError(resp.Error, wire)
	}
	return resp.Result, nil
}

// CallStream executes a "stream:"-prefixed method and returns a reader of
// the raw byte stream plus the chunk size callers should consume it with.
// The caller must Close the returned reader.
func (c *Client) CallStream(ctx context.Context, backend vcs.Backend, wire *Wire, method string, params ...any) (*ChunkReader, error) {
	if !strings.HasPrefix(method, "stream:") {
		return nil, fmt.Errorf("method %q is not a streaming method", method)
	}
	if params == nil {
		params = []any{}
	}
	env := envelope{
		ID:     uuid.NewString(),
		Method: method,
		Wire:   wire,
		Params: params,
	}

	body, release, err := c.post(ctx, c.endpoint(backend)+"/stream", &env)
	if err != nil {
		return nil, err
	}
	return newChunkReader(body, setting.VCS.ChunkSize, release), nil
}

// CheckURL probes whether url is a reachable clone source for the backend
// without fetching anything.
func (c *Client) CheckURL(ctx context.Context, backend vcs.Backend, url string) (bool, error) {
	result, err := c.Call(ctx, backend, nil, "check_url", url)
	if err != nil {
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// post sends the envelope and returns the response body on HTTP success.
// Status >= 400 is a communication error unconditionally, whatever the body
// says.
func (c *Client) post(ctx context.Context, url string, env *envelope) (io.ReadCloser, func(), error) {
	payload, err := msgpack.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal envelope for %s: %w", env.Method, err)
	}

	httpClient, release, err := c.pool.claim(ctx)
	if err != nil {
		return nil, nil, vcs.ErrVCSCommunication{URL: c.baseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		release(false)
		return nil, nil, vcs.ErrVCSCommunication{URL: c.baseURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-msgpack")

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		release(false)
		return nil, nil, vcs.ErrVCSCommunication{URL: c.baseURL, Err: err}
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		release(true)
		return nil, nil, vcs.ErrVCSCommunication{
			URL: c.baseURL,
			Err: fmt.Errorf("method %s returned HTTP %d", env.Method, resp.StatusCode),
		}
	}
	if log.IsTraceEnabled() {
		log.Trace("vcs call %s took %v", env.Method, time.Since(started))
	}
	return resp.Body, func() { release(true) }, nil
}

// mapRemoteError maps the server's _vcs_kind to the local error taxonomy,
// preserving the remote traceback.
func mapRemoteError(re *remoteError, wire *Wire) error {
	repoName := ""
	if wire != nil {
		repoName = wire.Path
	}
	switch re.KindVCS {
	case "abort", "error", "repo_locked":
		return vcs.ErrRepository{Message: re.Message, Traceback: re.Traceback}
	case "archive":
		return vcs.ErrImproperArchiveType{Kind: re.Message}
	case "lookup":
		return vcs.ErrCommitDoesNotExist{CommitID: re.Message, RepoName: repoName, Traceback: re.Traceback}
	case "requirement":
		return vcs.ErrRepositoryRequirement{Message: re.Message, Traceback: re.Traceback}
	case "url_error":
		return vcs.ErrVCSCommunication{URL: re.Message, Err: fmt.Errorf("%s", re.Type)}
	case "subrepo_merge_error":
		return vcs.ErrSubrepoMerge{Message: re.Message, Traceback: re.Traceback}
	case "unhandled":
		fallthrough
	default:
		return vcs.ErrRemoteUnhandled{Type: re.Type, Message: re.Message, Traceback: re.Traceback}
	}
}
