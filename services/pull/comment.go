// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"

	pull_model "code.mergebase.io/mergebase/models/pull"
	repo_model "code.mergebase.io/mergebase/models/repo"
	user_model "code.mergebase.io/mergebase/models/user"
	"code.mergebase.io/mergebase/modules/notification"
	"code.mergebase.io/mergebase/modules/util"
	"code.mergebase.io/mergebase/services/permission"
)

// CreateComment adds a comment to a pull request. Closed pull requests
// still accept comments; everything else about them is frozen.
func CreateComment(ctx context.Context, doer *user_model.User, comment *pull_model.Comment) error {
	if err := pull_model.CreateComment(ctx, comment); err != nil {
		return err
	}
	notification.NotifyCreateComment(ctx, doer, comment)
	return nil
}

// EditComment applies an optimistic-concurrency edit. Editing requires
// authorship, repo admin on the comment's repository, or super-admin.
func EditComment(ctx context.Context, doer *user_model.User, commentID int64, version int, newText string) (*pull_model.Comment, error) {
	comment, err := pull_model.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if doer.ID != comment.AuthorID && !doer.IsAdmin {
		repo, err := repo_model.GetRepositoryByID(ctx, comment.RepoID)
		if err != nil {
			return nil, err
		}
		allowed, err := permission.HasPerm(ctx, doer, repo, permission.ActionAdmin)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, util.ErrPermissionDenied
		}
	}

	updated, err := pull_model.UpdateComment(ctx, commentID, version, newText, doer.ID)
	if err != nil {
		return nil, err
	}
	notification.NotifyEditComment(ctx, doer, updated)
	return updated, nil
}

// AttachFile validates an uploaded file and binds it to a comment by its
// store uid.
func AttachFile(ctx context.Context, commentID int64, storeUID, name string, size int64) (*pull_model.Attachment, error) {
	a := &pull_model.Attachment{
		StoreUID:  storeUID,
		CommentID: commentID,
		Name:      name,
		Size:      size,
	}
	if err := pull_model.BindAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
