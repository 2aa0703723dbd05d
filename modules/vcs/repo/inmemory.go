// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/modules/vcs"
)

// NodeOp is one staged file operation in an in-memory commit
type NodeOp struct {
	Op      string // "add", "modify", "remove"
	Path    string
	Content []byte
	Mode    int
}

// InMemoryCommit accumulates node operations and materializes them as one
// commit on Commit(). The builder is single-use.
type InMemoryCommit struct {
	repo      *base
	ops       []NodeOp
	parentIDs []string
	committed bool
}

func newInMemoryCommit(repo *base) *InMemoryCommit {
	return &InMemoryCommit{repo: repo}
}

// Add stages a new file
func (c *InMemoryCommit) Add(path string, content []byte) *InMemoryCommit {
	c.ops = append(c.ops, NodeOp{Op: "add", Path: path, Content: content, Mode: 0o100644})
	return c
}

// Change stages new content for an existing file
func (c *InMemoryCommit) Change(path string, content []byte) *InMemoryCommit {
	c.ops = append(c.ops, NodeOp{Op: "modify", Path: path, Content: content, Mode: 0o100644})
	return c
}

// Remove stages a file deletion
func (c *InMemoryCommit) Remove(path string) *InMemoryCommit {
	c.ops = append(c.ops, NodeOp{Op: "remove", Path: path})
	return c
}

// WithParents overrides the parent commits (defaults to the branch head)
func (c *InMemoryCommit) WithParents(parentIDs ...string) *InMemoryCommit {
	c.parentIDs = parentIDs
	return c
}

// Commit materializes the staged operations and returns the new commit.
// The repository cache is invalidated on success.
func (c *InMemoryCommit) Commit(ctx context.Context, message, author, branch string) (*vcs.Commit, error) {
	if c.committed {
		return nil, fmt.Errorf("in-memory commit already committed")
	}
	if len(c.ops) == 0 {
		return nil, fmt.Errorf("in-memory commit has no staged operations")
	}

	nodes := make([]any, 0, len(c.ops))
	for _, op := range c.ops {
		nodes = append(nodes, map[string]any{
			"op":      op.Op,
			"path":    op.Path,
			"content": op.Content,
			"mode":    op.Mode,
		})
	}

	result, err := c.repo.call(ctx, "commit", message, author, branch, nodes, toAnySlice(c.parentIDs))
	if err != nil {
		return nil, err
	}
	c.committed = true
	c.repo.InvalidateVCSCache()

	commit := decodeCommit(result)
	if commit == nil {
		return nil, vcs.ErrRepository{Message: "remote commit returned no commit record"}
	}
	return commit, nil
}
