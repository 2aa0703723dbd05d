// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pull contains the pull request model and its satellite entities:
// versions, reviewers, observers and comments.
package pull

import (
	"context"
	"fmt"
	"strings"

	"code.mergebase.io/mergebase/models/db"
	repo_model "code.mergebase.io/mergebase/models/repo"
	"code.mergebase.io/mergebase/modules/timeutil"
	"code.mergebase.io/mergebase/modules/util"
	"code.mergebase.io/mergebase/modules/vcs"
)

// State is the lifecycle state of a pull request.
type State string

const (
	StateCreated  State = "created"
	StateUpdating State = "updating"
	StateMerging  State = "merging"
	StateClosed   State = "closed"
)

// ReviewStatus is the aggregate review outcome of a pull request.
type ReviewStatus string

const (
	StatusNotReviewed ReviewStatus = "not_reviewed"
	StatusApproved    ReviewStatus = "approved"
	StatusRejected    ReviewStatus = "rejected"
	StatusUnderReview ReviewStatus = "under_review"
)

// MergeFailureReason classifies why a merge attempt could not complete.
// The values are stable and exposed through the API.
type MergeFailureReason string

const (
	MergeFailureNone             MergeFailureReason = "NONE"
	MergeFailureUnknown          MergeFailureReason = "UNKNOWN"
	MergeFailureMergeFailed      MergeFailureReason = "MERGE_FAILED"
	MergeFailurePushFailed       MergeFailureReason = "PUSH_FAILED"
	MergeFailureTargetIsNotHead  MergeFailureReason = "TARGET_IS_NOT_HEAD"
	MergeFailureMissingTargetRef MergeFailureReason = "MISSING_TARGET_REF"
	MergeFailureMissingSourceRef MergeFailureReason = "MISSING_SOURCE_REF"
	MergeFailureSubrepoMerge     MergeFailureReason = "SUBREPO_MERGE_FAILED"
	MergeFailureHgMultipleHeads  MergeFailureReason = "HG_TARGET_HAS_MULTIPLE_HEADS"
	MergeFailureNotAllowed       MergeFailureReason = "USER_MERGE_NOT_ALLOWED"
)

// ErrPullRequestNotExist represents a "PullRequestNotExist" kind of error.
type ErrPullRequestNotExist struct {
	ID int64
}

// IsErrPullRequestNotExist checks if an error is a ErrPullRequestNotExist.
func IsErrPullRequestNotExist(err error) bool {
	_, ok := err.(ErrPullRequestNotExist)
	return ok
}

func (err ErrPullRequestNotExist) Error() string {
	return fmt.Sprintf("pull request does not exist [id: %d]", err.ID)
}

func (err ErrPullRequestNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrPullRequestClosed is returned for mutations against a closed pull
// request. Closed pull requests only admit new comments.
type ErrPullRequestClosed struct {
	ID int64
}

// IsErrPullRequestClosed checks if an error is a ErrPullRequestClosed.
func IsErrPullRequestClosed(err error) bool {
	_, ok := err.(ErrPullRequestClosed)
	return ok
}

func (err ErrPullRequestClosed) Error() string {
	return fmt.Sprintf("pull request is closed [id: %d]", err.ID)
}

// PullRequest represents a proposal to merge a source ref into a target ref.
// Refs are stored as serialized vcs.Reference values so the commit ids
// captured at create time survive later branch movement.
type PullRequest struct {
	ID           int64 `xorm:"pk autoincr"`
	SourceRepoID int64 `xorm:"INDEX NOT NULL"`
	TargetRepoID int64 `xorm:"INDEX NOT NULL"`
	SourceRef    string
	TargetRef    string

	CommonAncestor string   `xorm:"VARCHAR(64)"`
	Revisions      []string `xorm:"TEXT JSON"`

	Title               string
	Description         string `xorm:"LONGTEXT"`
	DescriptionRenderer string

	AuthorID int64 `xorm:"INDEX"`

	State  State        `xorm:"VARCHAR(16) INDEX NOT NULL DEFAULT 'created'"`
	Status ReviewStatus `xorm:"VARCHAR(16) NOT NULL DEFAULT 'not_reviewed'"`

	LastMergeStatus   MergeFailureReason `xorm:"VARCHAR(32) NOT NULL DEFAULT 'NONE'"`
	LastMergeMetadata map[string]any     `xorm:"TEXT JSON"`

	CreatedUnix timeutil.TimeStamp `xorm:"INDEX created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"INDEX updated"`

	SourceRepo *repo_model.Repository `xorm:"-"`
	TargetRepo *repo_model.Repository `xorm:"-"`
}

func init() {
	db.RegisterModel(new(PullRequest))
}

// TitleSafe returns the title with every opening brace doubled so it can be
// interpolated into brace-templated renderers without expansion.
func (pr *PullRequest) TitleSafe() string {
	return strings.ReplaceAll(pr.Title, "{", "{{")
}

// IsClosed reports whether the pull request reached its terminal state.
func (pr *PullRequest) IsClosed() bool {
	return pr.State == StateClosed
}

// SourceReference parses the stored source ref.
func (pr *PullRequest) SourceReference() (vcs.Reference, error) {
	return vcs.ParseReference(pr.SourceRef)
}

// TargetReference parses the stored target ref.
func (pr *PullRequest) TargetReference() (vcs.Reference, error) {
	return vcs.ParseReference(pr.TargetRef)
}

// LoadRepositories loads SourceRepo and TargetRepo if not already loaded.
func (pr *PullRequest) LoadRepositories(ctx context.Context) error {
	var err error
	if pr.TargetRepo == nil {
		pr.TargetRepo, err = repo_model.GetRepositoryByID(ctx, pr.TargetRepoID)
		if err != nil {
			return err
		}
	}
	if pr.SourceRepo == nil {
		if pr.SourceRepoID == pr.TargetRepoID {
			pr.SourceRepo = pr.TargetRepo
		} else if pr.SourceRepo, err = repo_model.GetRepositoryByID(ctx, pr.SourceRepoID); err != nil {
			return err
		}
	}
	return nil
}

// CreatePullRequest inserts a new pull request.
func CreatePullRequest(ctx context.Context, pr *PullRequest) error {
	return db.Insert(ctx, pr)
}

// GetPullRequestByID returns a pull request by given id if exists.
func GetPullRequestByID(ctx context.Context, id int64) (*PullRequest, error) {
	pr := new(PullRequest)
	has, err := db.GetEngine(ctx).ID(id).Get(pr)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrPullRequestNotExist{ID: id}
	}
	return pr, nil
}

// UpdateCols updates the given columns of the pull request.
func (pr *PullRequest) UpdateCols(ctx context.Context, cols ...string) error {
	_, err := db.GetEngine(ctx).ID(pr.ID).Cols(cols...).Update(pr)
	return err
}

// SetState transitions the pull request to the given state.
func (pr *PullRequest) SetState(ctx context.Context, state State) error {
	pr.State = state
	return pr.UpdateCols(ctx, "state")
}

// RecordMergeOutcome persists the result of the last merge attempt.
func (pr *PullRequest) RecordMergeOutcome(ctx context.Context, reason MergeFailureReason, metadata map[string]any) error {
	pr.LastMergeStatus = reason
	pr.LastMergeMetadata = metadata
	return pr.UpdateCols(ctx, "last_merge_status", "last_merge_metadata")
}
