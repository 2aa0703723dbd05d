// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package perm holds the stored permission graph.
package perm

import (
	"context"

	"code.mergebase.io/mergebase/models/db"
)

// AccessMode specifies the users access mode to a repository
type AccessMode int

const (
	// AccessModeNone no access
	AccessModeNone AccessMode = iota
	// AccessModeRead read access
	AccessModeRead
	// AccessModeWrite write access
	AccessModeWrite
	// AccessModeAdmin admin access
	AccessModeAdmin
)

func (mode AccessMode) String() string {
	switch mode {
	case AccessModeRead:
		return "read"
	case AccessModeWrite:
		return "write"
	case AccessModeAdmin:
		return "admin"
	default:
		return "none"
	}
}

// BranchPerm is the per-branch permission level
type BranchPerm string

const (
	BranchPermNone      BranchPerm = "none"
	BranchPermRead      BranchPerm = "read"
	BranchPermPush      BranchPerm = "push"
	BranchPermPushForce BranchPerm = "push_force"
)

// rank orders branch permissions from weakest to strongest.
func (p BranchPerm) rank() int {
	switch p {
	case BranchPermRead:
		return 1
	case BranchPermPush:
		return 2
	case BranchPermPushForce:
		return 3
	default:
		return 0
	}
}

// Stronger reports whether p grants at least as much as other.
func (p BranchPerm) Stronger(other BranchPerm) bool {
	return p.rank() >= other.rank()
}

// Access records one user's access mode on one repository.
type Access struct {
	ID     int64      `xorm:"pk autoincr"`
	UserID int64      `xorm:"UNIQUE(s) NOT NULL"`
	RepoID int64      `xorm:"UNIQUE(s) INDEX NOT NULL"`
	Mode   AccessMode `xorm:"NOT NULL DEFAULT 0"`
}

// BranchAccess narrows a user's permission on branches matching a glob
// pattern. The strongest matching rule wins.
type BranchAccess struct {
	ID      int64      `xorm:"pk autoincr"`
	UserID  int64      `xorm:"INDEX NOT NULL"`
	RepoID  int64      `xorm:"INDEX NOT NULL"`
	Pattern string     `xorm:"NOT NULL"`
	Perm    BranchPerm `xorm:"VARCHAR(16) NOT NULL DEFAULT 'none'"`
}

func init() {
	db.RegisterModel(new(Access))
	db.RegisterModel(new(BranchAccess))
}

// GetAccessMode returns the user's access mode on the repository,
// AccessModeNone when no grant exists.
func GetAccessMode(ctx context.Context, userID, repoID int64) (AccessMode, error) {
	a := new(Access)
	has, err := db.GetEngine(ctx).
		Where("user_id = ? AND repo_id = ?", userID, repoID).
		Get(a)
	if err != nil {
		return AccessModeNone, err
	} else if !has {
		return AccessModeNone, nil
	}
	return a.Mode, nil
}

// GetBranchRules returns the user's branch rules for the repository.
func GetBranchRules(ctx context.Context, userID, repoID int64) ([]*BranchAccess, error) {
	rules := make([]*BranchAccess, 0, 4)
	return rules, db.GetEngine(ctx).
		Where("user_id = ? AND repo_id = ?", userID, repoID).
		Asc("id").
		Find(&rules)
}

// GrantAccess inserts or updates a user's access mode on a repository.
func GrantAccess(ctx context.Context, userID, repoID int64, mode AccessMode) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		a := new(Access)
		has, err := db.GetEngine(ctx).
			Where("user_id = ? AND repo_id = ?", userID, repoID).
			Get(a)
		if err != nil {
			return err
		}
		if has {
			a.Mode = mode
			_, err = db.GetEngine(ctx).ID(a.ID).Cols("mode").Update(a)
			return err
		}
		return db.Insert(ctx, &Access{UserID: userID, RepoID: repoID, Mode: mode})
	})
}
