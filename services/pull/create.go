// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/models/db"
	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/vcs"
)

// ErrPullRequestsUnsupported is returned when the target backend cannot
// host pull requests. Subversion repositories still serve diffs and
// history, but never pull requests.
type ErrPullRequestsUnsupported struct {
	Backend vcs.Backend
}

// IsErrPullRequestsUnsupported checks if an error is a ErrPullRequestsUnsupported.
func IsErrPullRequestsUnsupported(err error) bool {
	_, ok := err.(ErrPullRequestsUnsupported)
	return ok
}

func (err ErrPullRequestsUnsupported) Error() string {
	return fmt.Sprintf("pull requests are not supported for the %s backend", err.Backend)
}

// CreateOptions carries everything needed to open a pull request.
type CreateOptions struct {
	SourceRepo  *repo_model.Repository
	TargetRepo  *repo_model.Repository
	SourceRef   vcs.Reference
	TargetRef   vcs.Reference
	Title       string
	Description string
	Reviewers   []*pull_model.Reviewer
	Observers   []int64
}

// Create opens a new pull request: it resolves both refs, records the
// common ancestor, walks the proposed revisions and snapshots version 1.
func Create(ctx context.Context, doer *user_model.User, opts CreateOptions) (*pull_model.PullRequest, error) {
	if !opts.TargetRepo.Backend.SupportsPullRequests() || !opts.SourceRepo.Backend.SupportsPullRequests() {
		return nil, ErrPullRequestsUnsupported{Backend: opts.TargetRepo.Backend}
	}

	source, err := OpenRepository(ctx, opts.SourceRepo)
	if err != nil {
		return nil, err
	}
	target, err := OpenRepository(ctx, opts.TargetRepo)
	if err != nil {
		return nil, err
	}

	if empty, err := target.IsEmpty(ctx); err != nil {
		return nil, err
	} else if empty {
		return nil, vcs.ErrEmptyRepository{RepoName: opts.TargetRepo.Name}
	}

	sourceRef, err := resolveRef(ctx, source, opts.SourceRef)
	if err != nil {
		return nil, err
	}
	targetRef, err := resolveRef(ctx, target, opts.TargetRef)
	if err != nil {
		return nil, err
	}

	var other = source
	if opts.SourceRepo.ID == opts.TargetRepo.ID {
		other = nil
	}
	ancestor, err := target.GetCommonAncestor(ctx, targetRef.CommitID, sourceRef.CommitID, other)
	if err != nil {
		return nil, err
	}
	revisions, err := computeRevisions(ctx, source, sourceRef.CommitID, ancestor)
	if err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		return nil, vcs.ErrRepository{Message: "source and target have no commits in between"}
	}

	pr := &pull_model.PullRequest{
		SourceRepoID:        opts.SourceRepo.ID,
		TargetRepoID:        opts.TargetRepo.ID,
		SourceRef:           sourceRef.String(),
		TargetRef:           targetRef.String(),
		CommonAncestor:      ancestor,
		Revisions:           revisions,
		Title:               opts.Title,
		Description:         opts.Description,
		DescriptionRenderer: "markdown",
		AuthorID:            doer.ID,
		State:               pull_model.StateCreated,
		Status:              pull_model.StatusNotReviewed,
		LastMergeStatus:     pull_model.MergeFailureNone,
	}
	pr.SourceRepo = opts.SourceRepo
	pr.TargetRepo = opts.TargetRepo

	if err := db.WithTx(ctx, func(ctx context.Context) error {
		if err := pull_model.CreatePullRequest(ctx, pr); err != nil {
			return err
		}
		if _, err := pull_model.SetReviewers(ctx, pr.ID, opts.Reviewers); err != nil {
			return err
		}
		if _, err := pull_model.SetObservers(ctx, pr.ID, opts.Observers); err != nil {
			return err
		}
		_, err := pull_model.CreateVersion(ctx, pr)
		return err
	}); err != nil {
		return nil, err
	}

	log.Info("New pull request %d: %s -> %s in %s", pr.ID, sourceRef.Name, targetRef.Name, opts.TargetRepo.Name)
	notification.NotifyCreatePullRequest(ctx, doer, pr)
	return pr, nil
}
