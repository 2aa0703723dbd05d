// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package permission is the oracle every state transition consults. Answers
// are consistent within one request but may change between requests.
package permission

import (
	"context"

	"code.mergebase.io/mergebase/models/perm"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/log"

	"github.com/gobwas/glob"
)

// Action is a permission-checked operation on a repository.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	ActionAdmin Action = "admin"
	ActionMerge Action = "merge"
)

func requiredMode(action Action) perm.AccessMode {
	switch action {
	case ActionRead:
		return perm.AccessModeRead
	case ActionWrite, ActionMerge:
		return perm.AccessModeWrite
	default:
		return perm.AccessModeAdmin
	}
}

// HasPerm reports whether the user may perform action on the repository.
// Denials are logged at warning level; the API layer must answer 404/403
// without revealing whether the object exists.
func HasPerm(ctx context.Context, user *user_model.User, repo *repo_model.Repository, action Action) (bool, error) {
	if user == nil || !user.IsActive {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}
	mode, err := perm.GetAccessMode(ctx, user.ID, repo.ID)
	if err != nil {
		return false, err
	}
	if mode < requiredMode(action) {
		log.Warn("Permission denied: user %s, repo %s, action %s (mode %s)", user.Name, repo.Name, action, mode)
		return false, nil
	}
	return true, nil
}

// GetBranchPerm returns the user's effective permission on one branch. The
// repository access mode sets the ceiling; branch rules can only narrow or
// confirm it, with the strongest matching rule winning.
func GetBranchPerm(ctx context.Context, user *user_model.User, repo *repo_model.Repository, branch string) (perm.BranchPerm, error) {
	if user == nil || !user.IsActive {
		return perm.BranchPermNone, nil
	}
	if user.IsAdmin {
		return perm.BranchPermPushForce, nil
	}

	mode, err := perm.GetAccessMode(ctx, user.ID, repo.ID)
	if err != nil {
		return perm.BranchPermNone, err
	}
	ceiling := perm.BranchPermNone
	switch {
	case mode >= perm.AccessModeAdmin:
		ceiling = perm.BranchPermPushForce
	case mode >= perm.AccessModeWrite:
		ceiling = perm.BranchPermPush
	case mode >= perm.AccessModeRead:
		ceiling = perm.BranchPermRead
	default:
		return perm.BranchPermNone, nil
	}

	rules, err := perm.GetBranchRules(ctx, user.ID, repo.ID)
	if err != nil {
		return perm.BranchPermNone, err
	}

	best := perm.BranchPermNone
	matched := false
	for _, rule := range rules {
		g, err := glob.Compile(rule.Pattern)
		if err != nil {
			log.Error("Invalid branch permission pattern %q on repo %s: %v", rule.Pattern, repo.Name, err)
			continue
		}
		if !g.Match(branch) {
			continue
		}
		matched = true
		if !best.Stronger(rule.Perm) {
			best = rule.Perm
		}
	}
	if !matched {
		return ceiling, nil
	}
	if ceiling.Stronger(best) {
		return best, nil
	}
	return ceiling, nil
}
