// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import "context"

// HookName identifies a synchronous hook point on the VCS server.
type HookName string

const (
	HookPrePull  HookName = "pre_pull"
	HookPostPull HookName = "post_pull"
	HookPrePush  HookName = "pre_push"
	HookPostPush HookName = "post_push"
)

// FireHook invokes a hook point synchronously. A hook error aborts the
// enclosing operation; pre hooks therefore run before any write becomes
// observable.
func (b *base) FireHook(ctx context.Context, name HookName, extras map[string]any) error {
	_, err := b.client.Call(ctx, b.backend, b.Wire(), string(name), extras)
	return err
}

// RepoSize asks the backend to compute the repository's on-disk size.
func (b *base) RepoSize(ctx context.Context, extras map[string]any) (int64, error) {
	result, err := b.client.Call(ctx, b.backend, b.Wire(), "repo_size", extras)
	if err != nil {
		return 0, err
	}
	return decodeInt(result), nil
}
