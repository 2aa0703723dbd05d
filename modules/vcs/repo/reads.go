// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"context"

	"code.mergebase.io/mergebase/modules/vcs/client"
)

// TreeItem is one entry of a tree listing
type TreeItem struct {
	Path string
	Kind string // file, dir, submodule
	Size int64
	Mode int
}

// NodeHistory returns the ids of commits touching path, newest first
func (b *base) NodeHistory(ctx context.Context, commitID, path string, limit int) ([]string, error) {
	result, err := b.call(ctx, "node_history", commitID, path, limit)
	if err != nil {
		return nil, err
	}
	return decodeStringSlice(result), nil
}

// TreeItems lists the tree at path in the given commit
func (b *base) TreeItems(ctx context.Context, commitID, path string) ([]TreeItem, error) {
	result, err := b.call(ctx, "tree_items", commitID, path)
	if err != nil {
		return nil, err
	}
	raw, _ := result.([]any)
	items := make([]TreeItem, 0, len(raw))
	for _, entry := range raw {
		m := decodeAnyMap(entry)
		items = append(items, TreeItem{
			Path: decodeString(m["path"]),
			Kind: decodeString(m["kind"]),
			Size: decodeInt(m["size"]),
			Mode: int(decodeInt(m["mode"])),
		})
	}
	return items, nil
}

// IsBinary reports whether the file node is binary at the given commit
func (b *base) IsBinary(ctx context.Context, commitID, path string) (bool, error) {
	result, err := b.call(ctx, "is_binary", commitID, path)
	if err != nil {
		return false, err
	}
	v, _ := result.(bool)
	return v, nil
}

// IsLargeFile reports whether the node is tracked by largefiles/LFS
func (b *base) IsLargeFile(ctx context.Context, commitID, path string) (bool, error) {
	result, err := b.call(ctx, "is_large_file", commitID, path)
	if err != nil {
		return false, err
	}
	v, _ := result.(bool)
	return v, nil
}

// FctxSize returns the file size at the given commit
func (b *base) FctxSize(ctx context.Context, commitID, path string) (int64, error) {
	result, err := b.call(ctx, "fctx_size", commitID, path)
	if err != nil {
		return 0, err
	}
	return decodeInt(result), nil
}

// BlobRawLength returns the raw blob length, following largefile pointers
func (b *base) BlobRawLength(ctx context.Context, commitID, path string) (int64, error) {
	result, err := b.call(ctx, "blob_raw_length", commitID, path)
	if err != nil {
		return 0, err
	}
	return decodeInt(result), nil
}

// BulkRequest resolves several pure reads for one commit in a single round
// trip. Keys name the methods, values their decoded results.
func (b *base) BulkRequest(ctx context.Context, commitID string, methods []string) (map[string]any, error) {
	result, err := b.call(ctx, "bulk_request", commitID, toAnySlice(methods))
	if err != nil {
		return nil, err
	}
	return decodeAnyMap(result), nil
}

// GetBlobStream streams the raw content of a file node without buffering it
// whole. The caller must Close the reader.
func (b *base) GetBlobStream(ctx context.Context, commitID, path string) (*client.ChunkReader, error) {
	return b.client.CallStream(ctx, b.backend, b.Wire(), "stream:blob_raw", commitID, path)
}

// GetArchiveStream streams an archive of the repository at a commit. Kind
// must be a supported archive extension (see the archive package).
func (b *base) GetArchiveStream(ctx context.Context, commitID, kind, prefix string) (*client.ChunkReader, error) {
	return b.client.CallStream(ctx, b.backend, b.Wire(), "stream:archive", commitID, kind, prefix)
}
