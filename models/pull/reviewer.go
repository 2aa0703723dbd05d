// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/timeutil"

	"xorm.io/builder"
)

// ReviewerRole describes how a reviewer was attached to a pull request.
type ReviewerRole string

const (
	RoleReviewer ReviewerRole = "reviewer"
	RoleObserver ReviewerRole = "observer"
)

// Reviewer binds a user to a pull request with review obligations.
type Reviewer struct {
	ID            int64 `xorm:"pk autoincr"`
	PullRequestID int64 `xorm:"UNIQUE(s) INDEX NOT NULL"`
	UserID        int64 `xorm:"UNIQUE(s) NOT NULL"`

	Reasons   []string `xorm:"TEXT JSON"`
	Mandatory bool
	Role      ReviewerRole   `xorm:"VARCHAR(16) NOT NULL DEFAULT 'reviewer'"`
	Rules     map[string]any `xorm:"TEXT JSON"`

	// Vote is the reviewer's current verdict, empty until cast.
	Vote ReviewStatus `xorm:"VARCHAR(16)"`

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

// Observer binds a user to a pull request for notifications only.
type Observer struct {
	ID            int64 `xorm:"pk autoincr"`
	PullRequestID int64 `xorm:"UNIQUE(s) INDEX NOT NULL"`
	UserID        int64 `xorm:"UNIQUE(s) NOT NULL"`

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func init() {
	db.RegisterModel(new(Reviewer))
	db.RegisterModel(new(Observer))
}

// GetReviewers returns all reviewers of a pull request.
func GetReviewers(ctx context.Context, prID int64) ([]*Reviewer, error) {
	reviewers := make([]*Reviewer, 0, 8)
	return reviewers, db.GetEngine(ctx).
		Where("pull_request_id = ?", prID).
		Asc("id").
		Find(&reviewers)
}

// GetObservers returns all observers of a pull request.
func GetObservers(ctx context.Context, prID int64) ([]*Observer, error) {
	observers := make([]*Observer, 0, 8)
	return observers, db.GetEngine(ctx).
		Where("pull_request_id = ?", prID).
		Asc("id").
		Find(&observers)
}

// MemberDelta records which user ids a membership update added and removed.
type MemberDelta struct {
	Added   []int64 `json:"added"`
	Removed []int64 `json:"removed"`
}

// SetReviewers replaces the reviewer set of a pull request and reports the
// delta. Reviewers already present keep their vote.
func SetReviewers(ctx context.Context, prID int64, reviewers []*Reviewer) (*MemberDelta, error) {
	delta := &MemberDelta{Added: []int64{}, Removed: []int64{}}
	err := db.WithTx(ctx, func(ctx context.Context) error {
		current, err := GetReviewers(ctx, prID)
		if err != nil {
			return err
		}
		existing := make(map[int64]*Reviewer, len(current))
		for _, r := range current {
			existing[r.UserID] = r
		}
		wanted := make(map[int64]bool, len(reviewers))
		for _, r := range reviewers {
			wanted[r.UserID] = true
			if _, ok := existing[r.UserID]; ok {
				continue
			}
			r.PullRequestID = prID
			if err := db.Insert(ctx, r); err != nil {
				return err
			}
			delta.Added = append(delta.Added, r.UserID)
		}
		for _, r := range current {
			if !wanted[r.UserID] {
				delta.Removed = append(delta.Removed, r.UserID)
			}
		}
		if len(delta.Removed) > 0 {
			if _, err := db.GetEngine(ctx).
				Where(builder.Eq{"pull_request_id": prID}.And(builder.In("user_id", delta.Removed))).
				Delete(new(Reviewer)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delta, nil
}

// SetObservers replaces the observer set of a pull request and reports the
// delta.
func SetObservers(ctx context.Context, prID int64, userIDs []int64) (*MemberDelta, error) {
	delta := &MemberDelta{Added: []int64{}, Removed: []int64{}}
	err := db.WithTx(ctx, func(ctx context.Context) error {
		current, err := GetObservers(ctx, prID)
		if err != nil {
			return err
		}
		existing := make(map[int64]*Observer, len(current))
		for _, o := range current {
			existing[o.UserID] = o
		}
		wanted := make(map[int64]bool, len(userIDs))
		for _, uid := range userIDs {
			wanted[uid] = true
			if _, ok := existing[uid]; ok {
				continue
			}
			if err := db.Insert(ctx, &Observer{PullRequestID: prID, UserID: uid}); err != nil {
				return err
			}
			delta.Added = append(delta.Added, uid)
		}
		for _, o := range current {
			if !wanted[o.UserID] {
				delta.Removed = append(delta.Removed, o.UserID)
			}
		}
		if len(delta.Removed) > 0 {
			if _, err := db.GetEngine(ctx).
				Where(builder.Eq{"pull_request_id": prID}.And(builder.In("user_id", delta.Removed))).
				Delete(new(Observer)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delta, nil
}

// CastVote records a reviewer's verdict and recomputes the pull request's
// aggregate status.
func CastVote(ctx context.Context, pr *PullRequest, userID int64, vote ReviewStatus) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.GetEngine(ctx).
			Where("pull_request_id = ? AND user_id = ?", pr.ID, userID).
			Cols("vote").
			Update(&Reviewer{Vote: vote}); err != nil {
			return err
		}
		reviewers, err := GetReviewers(ctx, pr.ID)
		if err != nil {
			return err
		}
		pr.Status = AggregateStatus(reviewers)
		return pr.UpdateCols(ctx, "status")
	})
}

// AggregateStatus folds individual reviewer votes into the pull request
// status. Any rejection rejects; approval requires every mandatory reviewer
// plus at least one vote overall.
func AggregateStatus(reviewers []*Reviewer) ReviewStatus {
	votes := 0
	approvals := 0
	mandatoryPending := false
	for _, r := range reviewers {
		switch r.Vote {
		case StatusRejected:
			return StatusRejected
		case StatusApproved:
			votes++
			approvals++
		default:
			if r.Mandatory {
				mandatoryPending = true
			}
		}
	}
	if votes == 0 {
		return StatusNotReviewed
	}
	if mandatoryPending || approvals != votes {
		return StatusUnderReview
	}
	return StatusApproved
}
