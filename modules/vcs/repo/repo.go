// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repo provides the per-backend repository handles. A handle is the
// only object that talks to the VCS remote client; everything above it
// (shadow manager, merge engine, diff service) goes through the Repository
// interface.
package repo

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/modules/vcs/client"

	"github.com/google/uuid"
)

// GetCommitsOptions filters a commit walk
type GetCommitsOptions struct {
	StartID    string
	EndID      string
	Branch     string
	Since      int64
	Until      int64
	ShowHidden bool
}

// TrialMergeOptions drives a merge or rebase inside a shadow repository
type TrialMergeOptions struct {
	TargetRef   vcs.Reference
	SourceRef   vcs.Reference
	Message     string
	MergerName  string
	MergerEmail string
	UseRebase   bool
	DryRun      bool
}

// PathMatcher answers path visibility questions for one user
type PathMatcher interface {
	PathAllowed(path string) bool
}

// Repository is the common contract of the three backend handles.
type Repository interface {
	Backend() vcs.Backend
	Path() string
	RepoID() int64
	Wire() *client.Wire

	// IsEmpty reports whether the repository has no commits
	IsEmpty(ctx context.Context) (bool, error)
	// CommitIDs returns every reachable commit id ascending by topology;
	// cached until InvalidateVCSCache.
	CommitIDs(ctx context.Context) ([]string, error)
	// GetCommit resolves a commit id, numeric index or ref name to a Commit
	GetCommit(ctx context.Context, commitIDOrRef string) (*vcs.Commit, error)
	// GetCommits returns a restartable iterator over a filtered walk
	GetCommits(ctx context.Context, opts GetCommitsOptions) (*CommitIter, error)

	Branches(ctx context.Context) (map[string]string, error)
	BranchesClosed(ctx context.Context) (map[string]string, error)
	Tags(ctx context.Context) (map[string]string, error)
	Bookmarks(ctx context.Context) (map[string]string, error)
	// BranchHeads returns every head of the named branch; more than one is
	// only possible for Mercurial.
	BranchHeads(ctx context.Context, branch string) ([]string, error)

	// GetDiff returns the raw unified diff between two commits, tagged with
	// the backend dialect. path1 must equal path when both are given.
	GetDiff(ctx context.Context, commitID1, commitID2, path string, ignoreWhitespace bool, context_ int, path1 string) (*vcs.RawDiff, error)
	// Strip removes a commit and its descendants and invalidates the cache
	Strip(ctx context.Context, commitID, branch string) error

	Pull(ctx context.Context, url string, commitIDs []string) error
	Fetch(ctx context.Context, url string, commitIDs []string) error
	Push(ctx context.Context, url string) error
	// CloneTo creates a local clone of this repository at destPath, checked
	// out to branch when the backend supports it.
	CloneTo(ctx context.Context, destPath, branch string) error

	// InMemoryCommit starts a fluent builder of one commit
	InMemoryCommit() *InMemoryCommit

	// GetCommonAncestor returns the merge base, or "" when the histories are
	// unrelated. otherRepo may be nil for the single-repo case.
	GetCommonAncestor(ctx context.Context, commitID1, commitID2 string, otherRepo Repository) (string, error)

	// GetShadowInstance binds a handle to a shadow working copy. Hooks are
	// disabled unless withHooks is set.
	GetShadowInstance(shadowPath string, withHooks bool) Repository

	// GetPathPermissions returns a matcher for the user's path ACL, or nil
	// when the backend has no path ACLs configured.
	GetPathPermissions(ctx context.Context, user string) (PathMatcher, error)

	// StreamArchive writes an archive of the tree at commitID to w. kind
	// is the backend archive format name (zip, tgz, tbz2).
	StreamArchive(ctx context.Context, w io.Writer, commitID, kind, prefix string) error

	// FireHook invokes a synchronous hook point; an error aborts the
	// enclosing operation.
	FireHook(ctx context.Context, name HookName, extras map[string]any) error
	// RepoSize computes the repository's on-disk size via the backend.
	RepoSize(ctx context.Context, extras map[string]any) (int64, error)

	// InvalidateVCSCache rotates the repo state uid, poisoning both the
	// local memoization cache and the server-side cached repository object.
	InvalidateVCSCache()

	// Shadow merge primitives, only meaningful on shadow instances.
	ShadowMerge(ctx context.Context, opts TrialMergeOptions) (mergeCommitID string, err error)
	// ShadowCleanup restores a clean working state after a failed merge or
	// rebase attempt. Idempotent.
	ShadowCleanup(ctx context.Context) error
	// ShadowPush pushes the merged state from the shadow back to the target
	// repository path, with hooks enabled.
	ShadowPush(ctx context.Context, targetPath string, refs []string) error
	// CreateCloseCommit commits a "close branch" marker on the source branch
	// inside the shadow and returns its id.
	CreateCloseCommit(ctx context.Context, sourceRef vcs.Reference, message, name, email string) (string, error)
}

// New creates a repository handle for the given backend
func New(c *client.Client, backend vcs.Backend, path string, repoID int64) (Repository, error) {
	b := &base{
		client:   c,
		backend:  backend,
		path:     path,
		repoID:   repoID,
		stateUID: uuid.NewString(),
		context_: uuid.NewString(),
	}
	switch backend {
	case vcs.BackendGit:
		return &gitRepository{base: b}, nil
	case vcs.BackendHg:
		return &hgRepository{base: b}, nil
	case vcs.BackendSvn:
		return &svnRepository{base: b}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// base holds the state shared by every backend handle
type base struct {
	client  *client.Client
	backend vcs.Backend
	path    string
	repoID  int64

	withHooks bool

	mu        sync.Mutex
	stateUID  string
	context_  string
	commitIDs []string // lazy, reset on InvalidateVCSCache
	config    []client.ConfigItem
}

func (b *base) Backend() vcs.Backend { return b.backend }
func (b *base) Path() string         { return b.path }
func (b *base) RepoID() int64        { return b.repoID }

// Wire builds the call envelope wire section with the current state uid
func (b *base) Wire() *client.Wire {
	return b.wireWithHooks(b.withHooks)
}

// wireWithHooks builds a wire section with hook skipping decided explicitly.
// Shadow-internal operations carry RC_SKIP_HOOKS=1; the real merge push
// flips it back to 0 so the target's hooks run.
func (b *base) wireWithHooks(hooksEnabled bool) *client.Wire {
	b.mu.Lock()
	defer b.mu.Unlock()
	cfg := append([]client.ConfigItem{}, b.config...)
	skip := "1"
	if hooksEnabled {
		skip = "0"
	}
	cfg = append(cfg, client.ConfigItem{Section: "hooks", Key: "RC_SKIP_HOOKS", Value: skip})
	return &client.Wire{
		Path:         b.path,
		RepoID:       b.repoID,
		Config:       cfg,
		RepoStateUID: b.stateUID,
		Context:      b.context_,
	}
}

// InvalidateVCSCache rotates the state uid and drops local lazy state
func (b *base) InvalidateVCSCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateUID = uuid.NewString()
	b.context_ = uuid.NewString()
	b.commitIDs = nil
}

func (b *base) call(ctx context.Context, method string, params ...any) (any, error) {
	return b.client.CachedCall(ctx, b.backend, b.Wire(), method, params...)
}

// IsEmpty reports whether the repository has no commits
func (b *base) IsEmpty(ctx context.Context) (bool, error) {
	ids, err := b.commitIDsLocked(ctx)
	if err != nil {
		return false, err
	}
	return len(ids) == 0, nil
}

// CommitIDs returns all commit ids ascending; memoized until invalidation
func (b *base) CommitIDs(ctx context.Context) ([]string, error) {
	return b.commitIDsLocked(ctx)
}

func (b *base) commitIDsLocked(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	cached := b.commitIDs
	b.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	result, err := b.call(ctx, "ctx_list")
	if err != nil {
		return nil, err
	}
	ids := decodeStringSlice(result)

	b.mu.Lock()
	b.commitIDs = ids
	b.mu.Unlock()
	return ids, nil
}

// resolveCommitID turns user input (full/short hash, numeric index, ref
// name) into a full commit id. A numeric string shorter than 12 characters
// outside a branch context addresses the commit id list by position.
func (b *base) resolveCommitID(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", vcs.ErrCommitDoesNotExist{CommitID: input, RepoName: b.path}
	}

	if len(input) < 12 {
		if idx, err := strconv.Atoi(input); err == nil && idx >= 0 {
			ids, err := b.commitIDsLocked(ctx)
			if err != nil {
				return "", err
			}
			if len(ids) == 0 {
				return "", vcs.ErrEmptyRepository{RepoName: b.path}
			}
			if idx >= len(ids) {
				return "", vcs.ErrCommitDoesNotExist{CommitID: input, RepoName: b.path}
			}
			return ids[idx], nil
		}
	}

	for _, refs := range []func(context.Context) (map[string]string, error){b.branchesRaw, b.tagsRaw, b.bookmarksRaw} {
		m, err := refs(ctx)
		if err != nil {
			return "", err
		}
		if id, ok := m[input]; ok {
			return id, nil
		}
	}
	return input, nil
}

func (b *base) branchesRaw(ctx context.Context) (map[string]string, error) {
	result, err := b.call(ctx, "branches", false, true) // normal=false? (closed, active) flags: active only
	if err != nil {
		return nil, err
	}
	return decodeStringMap(result), nil
}

func (b *base) tagsRaw(ctx context.Context) (map[string]string, error) {
	result, err := b.call(ctx, "tags")
	if err != nil {
		return nil, err
	}
	return decodeStringMap(result), nil
}

func (b *base) bookmarksRaw(ctx context.Context) (map[string]string, error) {
	result, err := b.call(ctx, "bookmarks")
	if err != nil {
		return nil, err
	}
	return decodeStringMap(result), nil
}

// GetCommit resolves its input and loads the commit
func (b *base) GetCommit(ctx context.Context, commitIDOrRef string) (*vcs.Commit, error) {
	empty, err := b.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, vcs.ErrEmptyRepository{RepoName: b.path}
	}
	id, err := b.resolveCommitID(ctx, commitIDOrRef)
	if err != nil {
		return nil, err
	}
	result, err := b.call(ctx, "revision", id)
	if err != nil {
		return nil, err
	}
	commit := decodeCommit(result)
	if commit == nil {
		return nil, vcs.ErrCommitDoesNotExist{CommitID: commitIDOrRef, RepoName: b.path}
	}
	return commit, nil
}

// GetCommits walks history with filters; start after end is an error
func (b *base) GetCommits(ctx context.Context, opts GetCommitsOptions) (*CommitIter, error) {
	ids, err := b.commitIDsLocked(ctx)
	if err != nil {
		return nil, err
	}
	startIdx, endIdx := 0, len(ids)-1
	if opts.StartID != "" {
		startIdx = indexOf(ids, opts.StartID)
		if startIdx < 0 {
			return nil, vcs.ErrCommitDoesNotExist{CommitID: opts.StartID, RepoName: b.path}
		}
	}
	if opts.EndID != "" {
		endIdx = indexOf(ids, opts.EndID)
		if endIdx < 0 {
			return nil, vcs.ErrCommitDoesNotExist{CommitID: opts.EndID, RepoName: b.path}
		}
	}
	if startIdx > endIdx {
		return nil, vcs.ErrRepository{Message: fmt.Sprintf("start commit %s is after end commit %s", opts.StartID, opts.EndID)}
	}
	return newCommitIter(b, ids[startIdx:endIdx+1], opts), nil
}

// Branches returns branch heads sorted ascending by name
func (b *base) Branches(ctx context.Context) (map[string]string, error) {
	return b.branchesRaw(ctx)
}

// BranchesClosed returns closed branches (hg only; empty elsewhere)
func (b *base) BranchesClosed(ctx context.Context) (map[string]string, error) {
	result, err := b.call(ctx, "branches", true, false)
	if err != nil {
		return nil, err
	}
	return decodeStringMap(result), nil
}

// Tags returns tag refs, names sorted descending for display
func (b *base) Tags(ctx context.Context) (map[string]string, error) {
	return b.tagsRaw(ctx)
}

// Bookmarks returns hg bookmarks; empty for other backends
func (b *base) Bookmarks(ctx context.Context) (map[string]string, error) {
	return b.bookmarksRaw(ctx)
}

// BranchHeads returns the head commits of one branch
func (b *base) BranchHeads(ctx context.Context, branch string) ([]string, error) {
	result, err := b.call(ctx, "heads", branch)
	if err != nil {
		return nil, err
	}
	return decodeStringSlice(result), nil
}

// GetDiff returns the raw unified diff between two commits
func (b *base) GetDiff(ctx context.Context, commitID1, commitID2, path string, ignoreWhitespace bool, context_ int, path1 string) (*vcs.RawDiff, error) {
	if path1 != "" && path1 != path {
		return nil, fmt.Errorf("path1 %q must equal path %q", path1, path)
	}
	result, err := b.call(ctx, "diff", commitID1, commitID2, path, ignoreWhitespace, context_)
	if err != nil {
		return nil, err
	}
	return &vcs.RawDiff{Backend: b.backend, Raw: decodeBytes(result)}, nil
}

// StreamArchive writes an archive of the tree at commitID to w
func (b *base) StreamArchive(ctx context.Context, w io.Writer, commitID, kind, prefix string) error {
	reader, err := b.client.CallStream(ctx, b.backend, b.Wire(), "stream:archive_repo", commitID, kind, prefix)
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = reader.WriteTo(w)
	return err
}

// Pull pulls commits from url, possibly updating the working copy
func (b *base) Pull(ctx context.Context, url string, commitIDs []string) error {
	_, err := b.call(ctx, "pull", url, toAnySlice(commitIDs))
	if err == nil {
		b.InvalidateVCSCache()
	}
	return err
}

// Fetch fetches commits from url without touching the working copy
func (b *base) Fetch(ctx context.Context, url string, commitIDs []string) error {
	_, err := b.call(ctx, "fetch", url, toAnySlice(commitIDs))
	if err == nil {
		b.InvalidateVCSCache()
	}
	return err
}

// Push pushes all local changes to url
func (b *base) Push(ctx context.Context, url string) error {
	_, err := b.call(ctx, "push", url)
	return err
}

// CloneTo creates a local clone at destPath checked out to branch
func (b *base) CloneTo(ctx context.Context, destPath, branch string) error {
	_, err := b.call(ctx, "clone", destPath, branch)
	return err
}

// Strip removes a commit and its descendants
func (b *base) Strip(ctx context.Context, commitID, branch string) error {
	_, err := b.call(ctx, "strip", commitID, branch)
	if err == nil {
		b.InvalidateVCSCache()
	}
	return err
}

// GetPathPermissions is a no-op for backends without path ACLs
func (b *base) GetPathPermissions(ctx context.Context, user string) (PathMatcher, error) {
	return nil, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id || strings.HasPrefix(v, id) {
			return i
		}
	}
	return -1
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
