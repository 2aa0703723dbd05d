// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	"code.mergebase.io/mergebase/models/db"
	pull_model "code.mergebase.io/mergebase/models/pull"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/globallock"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification"
)

// UpdateOptions carries the mutable pull request fields. Nil pointers mean
// "leave unchanged".
type UpdateOptions struct {
	Title       *string
	Description *string
	Reviewers   []*pull_model.Reviewer
	Observers   []int64

	// UpdateCommits recomputes the revision set against the current source
	// and target tips.
	UpdateCommits bool
}

// UpdateResult reports everything an update changed.
type UpdateResult struct {
	PullRequest      *pull_model.PullRequest
	UpdatedCommits   *CommitDelta
	UpdatedReviewers *pull_model.MemberDelta
	UpdatedObservers *pull_model.MemberDelta
}

// Update applies field and commit updates to an open pull request under the
// pull request lock.
func Update(ctx context.Context, doer *user_model.User, pr *pull_model.PullRequest, opts UpdateOptions) (*UpdateResult, error) {
	result := &UpdateResult{
		PullRequest:      pr,
		UpdatedCommits:   &CommitDelta{Added: []string{}, Removed: []string{}, Common: []string{}, Total: []string{}},
		UpdatedReviewers: &pull_model.MemberDelta{Added: []int64{}, Removed: []int64{}},
		UpdatedObservers: &pull_model.MemberDelta{Added: []int64{}, Removed: []int64{}},
	}

	err := globallock.LockAndDo(ctx, globallock.PullRequestLockKey(pr.ID), func(ctx context.Context) error {
		if pr.IsClosed() {
			return pull_model.ErrPullRequestClosed{ID: pr.ID}
		}

		cols := make([]string, 0, 4)
		if opts.Title != nil && *opts.Title != pr.Title {
			pr.Title = *opts.Title
			cols = append(cols, "title")
		}
		if opts.Description != nil && *opts.Description != pr.Description {
			pr.Description = *opts.Description
			cols = append(cols, "description")
		}
		if len(cols) > 0 {
			if err := pr.UpdateCols(ctx, cols...); err != nil {
				return err
			}
		}

		if opts.Reviewers != nil {
			delta, err := pull_model.SetReviewers(ctx, pr.ID, opts.Reviewers)
			if err != nil {
				return err
			}
			result.UpdatedReviewers = delta
		}
		if opts.Observers != nil {
			delta, err := pull_model.SetObservers(ctx, pr.ID, opts.Observers)
			if err != nil {
				return err
			}
			result.UpdatedObservers = delta
		}

		if opts.UpdateCommits {
			delta, err := updateCommits(ctx, pr)
			if err != nil {
				return err
			}
			result.UpdatedCommits = delta
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notification.NotifyUpdatePullRequest(ctx, doer, pr)
	return result, nil
}

// updateCommits recomputes the revision set against the current tips. A
// new version is appended whenever the delta is non-empty or either
// resolved tip moved; otherwise the pull request is left untouched.
func updateCommits(ctx context.Context, pr *pull_model.PullRequest) (*CommitDelta, error) {
	if err := pr.LoadRepositories(ctx); err != nil {
		return nil, err
	}
	source, err := OpenRepository(ctx, pr.SourceRepo)
	if err != nil {
		return nil, err
	}
	target, err := OpenRepository(ctx, pr.TargetRepo)
	if err != nil {
		return nil, err
	}

	sourceRef, err := pr.SourceReference()
	if err != nil {
		return nil, err
	}
	targetRef, err := pr.TargetReference()
	if err != nil {
		return nil, err
	}

	// re-resolve both refs at their current tips
	newSourceRef, err := resolveRef(ctx, source, sourceRef)
	if err != nil {
		return nil, err
	}
	newTargetRef, err := resolveRef(ctx, target, targetRef)
	if err != nil {
		return nil, err
	}

	var other = source
	if pr.SourceRepoID == pr.TargetRepoID {
		other = nil
	}
	ancestor, err := target.GetCommonAncestor(ctx, newTargetRef.CommitID, newSourceRef.CommitID, other)
	if err != nil {
		return nil, err
	}
	revisions, err := computeRevisions(ctx, source, newSourceRef.CommitID, ancestor)
	if err != nil {
		return nil, err
	}

	delta := computeDelta(pr.Revisions, revisions)
	if delta.Empty() {
		if newSourceRef.CommitID == sourceRef.CommitID && newTargetRef.CommitID == targetRef.CommitID {
			return delta, nil
		}
		// A ref moved while the source set stayed intact. A target-side
		// force-push still drops commits the pull request was based on, so
		// report them and append a version for the new target tip.
		if newTargetRef.CommitID != targetRef.CommitID {
			dropped, err := targetDroppedCommits(ctx, target, targetRef.CommitID, newTargetRef.CommitID)
			if err != nil {
				return nil, err
			}
			delta.Removed = dropped
		}
	}

	if err := pr.SetState(ctx, pull_model.StateUpdating); err != nil {
		return nil, err
	}
	err = db.WithTx(ctx, func(ctx context.Context) error {
		pr.SourceRef = newSourceRef.String()
		pr.TargetRef = newTargetRef.String()
		pr.CommonAncestor = ancestor
		pr.Revisions = revisions
		if err := pr.UpdateCols(ctx, "source_ref", "target_ref", "common_ancestor", "revisions"); err != nil {
			return err
		}
		_, err := pull_model.CreateVersion(ctx, pr)
		return err
	})
	if stateErr := pr.SetState(ctx, pull_model.StateCreated); stateErr != nil && err == nil {
		err = stateErr
	}
	if err != nil {
		return nil, err
	}

	log.Info("Pull request %d commits updated: %d added, %d removed", pr.ID, len(delta.Added), len(delta.Removed))
	return delta, nil
}
