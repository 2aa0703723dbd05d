// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/timeutil"
	"code.mergebase.io/mergebase/modules/util"
)

// Version is an immutable snapshot of a pull request's refs and revision
// set, taken whenever an update actually changes the revision set.
// Versions are numbered 1..N per pull request.
type Version struct {
	ID            int64 `xorm:"pk autoincr"`
	PullRequestID int64 `xorm:"UNIQUE(s) INDEX NOT NULL"`
	Number        int   `xorm:"UNIQUE(s) NOT NULL"`

	SourceRef      string
	TargetRef      string
	CommonAncestor string   `xorm:"VARCHAR(64)"`
	Revisions      []string `xorm:"TEXT JSON"`

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func init() {
	db.RegisterModel(new(Version))
}

// ErrVersionNotExist represents a "VersionNotExist" kind of error.
type ErrVersionNotExist struct {
	PullRequestID int64
	Number        int
}

// IsErrVersionNotExist checks if an error is a ErrVersionNotExist.
func IsErrVersionNotExist(err error) bool {
	_, ok := err.(ErrVersionNotExist)
	return ok
}

func (err ErrVersionNotExist) Error() string {
	return fmt.Sprintf("pull request version does not exist [pull: %d, version: %d]", err.PullRequestID, err.Number)
}

func (err ErrVersionNotExist) Unwrap() error {
	return util.ErrNotExist
}

// CreateVersion snapshots the pull request's current refs and revisions as
// the next version number.
func CreateVersion(ctx context.Context, pr *PullRequest) (*Version, error) {
	v := &Version{
		PullRequestID:  pr.ID,
		SourceRef:      pr.SourceRef,
		TargetRef:      pr.TargetRef,
		CommonAncestor: pr.CommonAncestor,
		Revisions:      pr.Revisions,
	}
	err := db.WithTx(ctx, func(ctx context.Context) error {
		latest, err := LatestVersionNumber(ctx, pr.ID)
		if err != nil {
			return err
		}
		v.Number = latest + 1
		return db.Insert(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LatestVersionNumber returns the highest version number of the pull
// request, 0 when it has no versions yet.
func LatestVersionNumber(ctx context.Context, prID int64) (int, error) {
	var latest int
	_, err := db.GetEngine(ctx).Table("version").
		Where("pull_request_id = ?", prID).
		Select("IFNULL(MAX(number), 0)").
		Get(&latest)
	return latest, err
}

// GetVersion returns a specific version of a pull request.
func GetVersion(ctx context.Context, prID int64, number int) (*Version, error) {
	v := new(Version)
	has, err := db.GetEngine(ctx).
		Where("pull_request_id = ? AND number = ?", prID, number).
		Get(v)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrVersionNotExist{PullRequestID: prID, Number: number}
	}
	return v, nil
}

// GetVersions returns all versions of a pull request ordered oldest first.
func GetVersions(ctx context.Context, prID int64) ([]*Version, error) {
	versions := make([]*Version, 0, 4)
	return versions, db.GetEngine(ctx).
		Where("pull_request_id = ?", prID).
		Asc("number").
		Find(&versions)
}
