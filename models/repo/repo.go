// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repo contains the repository model.
package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/timeutil"
	"code.mergebase.io/mergebase/modules/util"
	"code.mergebase.io/mergebase/modules/vcs"
)

// ErrRepoNotExist represents a "RepoNotExist" kind of error.
type ErrRepoNotExist struct {
	ID   int64
	Name string
}

// IsErrRepoNotExist checks if an error is a ErrRepoNotExist.
func IsErrRepoNotExist(err error) bool {
	_, ok := err.(ErrRepoNotExist)
	return ok
}

func (err ErrRepoNotExist) Error() string {
	return fmt.Sprintf("repository does not exist [id: %d, name: %s]", err.ID, err.Name)
}

func (err ErrRepoNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrRepoAlreadyExist represents an error that a repository with the same
// name already exists.
type ErrRepoAlreadyExist struct {
	Name string
}

// IsErrRepoAlreadyExist checks if an error is a ErrRepoAlreadyExist.
func IsErrRepoAlreadyExist(err error) bool {
	_, ok := err.(ErrRepoAlreadyExist)
	return ok
}

func (err ErrRepoAlreadyExist) Error() string {
	return fmt.Sprintf("repository already exists [name: %s]", err.Name)
}

func (err ErrRepoAlreadyExist) Unwrap() error {
	return util.ErrAlreadyExist
}

// Repository represents a repository served by this instance. Groups are
// encoded in Name as nested path segments.
type Repository struct {
	ID          int64       `xorm:"pk autoincr"`
	Name        string      `xorm:"UNIQUE NOT NULL"`
	Backend     vcs.Backend `xorm:"VARCHAR(8) NOT NULL"`
	LandingRef  string
	Bare        bool
	Description string `xorm:"TEXT"`

	CreatedUnix timeutil.TimeStamp `xorm:"INDEX created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"INDEX updated"`
}

func init() {
	db.RegisterModel(new(Repository))
}

// RepoPath returns the repository's path under the configured store root.
func (repo *Repository) RepoPath() string {
	return filepath.Join(setting.Repository.Root, filepath.FromSlash(repo.Name))
}

// CachePath returns the repository's .cache subtree, which holds the
// largefiles and lfs stores.
func (repo *Repository) CachePath() string {
	return filepath.Join(repo.RepoPath(), ".cache")
}

// LargefilesStorePath returns the hg largefiles store location.
func (repo *Repository) LargefilesStorePath() string {
	return filepath.Join(repo.CachePath(), "largefiles")
}

// LFSStorePath returns the git-lfs object store location.
func (repo *Repository) LFSStorePath() string {
	return filepath.Join(repo.CachePath(), "lfs_store")
}

// GetRepositoryByID returns the repository by given id if exists.
func GetRepositoryByID(ctx context.Context, id int64) (*Repository, error) {
	repo := new(Repository)
	has, err := db.GetEngine(ctx).ID(id).Get(repo)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrRepoNotExist{ID: id}
	}
	return repo, nil
}

// GetRepositoryByName returns the repository by given name if exists.
func GetRepositoryByName(ctx context.Context, name string) (*Repository, error) {
	repo := new(Repository)
	has, err := db.GetEngine(ctx).Where("name = ?", name).Get(repo)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrRepoNotExist{Name: name}
	}
	return repo, nil
}

// CreateRepository inserts a new repository record.
func CreateRepository(ctx context.Context, repo *Repository) error {
	has, err := db.GetEngine(ctx).Where("name = ?", repo.Name).Exist(new(Repository))
	if err != nil {
		return err
	} else if has {
		return ErrRepoAlreadyExist{Name: repo.Name}
	}
	return db.Insert(ctx, repo)
}
