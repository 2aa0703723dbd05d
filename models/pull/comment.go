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

// CommentKind classifies a comment.
type CommentKind string

const (
	CommentKindNote     CommentKind = "note"
	CommentKindTodo     CommentKind = "todo"
	CommentKindQuestion CommentKind = "question"
)

// ErrCommentNotExist represents a "CommentNotExist" kind of error.
type ErrCommentNotExist struct {
	ID int64
}

// IsErrCommentNotExist checks if an error is a ErrCommentNotExist.
func IsErrCommentNotExist(err error) bool {
	_, ok := err.(ErrCommentNotExist)
	return ok
}

func (err ErrCommentNotExist) Error() string {
	return fmt.Sprintf("comment does not exist [id: %d]", err.ID)
}

func (err ErrCommentNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrCommentVersionMismatch is returned when an edit presents a stale
// version number. The caller holds an outdated copy and must re-read.
type ErrCommentVersionMismatch struct {
	ID       int64
	Expected int
	Current  int
}

// IsErrCommentVersionMismatch checks if an error is a ErrCommentVersionMismatch.
func IsErrCommentVersionMismatch(err error) bool {
	_, ok := err.(ErrCommentVersionMismatch)
	return ok
}

func (err ErrCommentVersionMismatch) Error() string {
	return fmt.Sprintf("comment version mismatch [id: %d, expected: %d, current: %d]", err.ID, err.Expected, err.Current)
}

// ErrCommentImmutable is returned for edits against an immutable comment.
type ErrCommentImmutable struct {
	ID int64
}

// IsErrCommentImmutable checks if an error is a ErrCommentImmutable.
func IsErrCommentImmutable(err error) bool {
	_, ok := err.(ErrCommentImmutable)
	return ok
}

func (err ErrCommentImmutable) Error() string {
	return fmt.Sprintf("comment is immutable [id: %d]", err.ID)
}

// Comment is attached either to a pull request version or to a single
// commit. PullRequestID is zero for commit comments, in which case CommitID
// identifies the anchor.
type Comment struct {
	ID            int64  `xorm:"pk autoincr"`
	RepoID        int64  `xorm:"INDEX NOT NULL"`
	PullRequestID int64  `xorm:"INDEX"`
	CommitID      string `xorm:"VARCHAR(64)"`

	AuthorID int64       `xorm:"INDEX NOT NULL"`
	Text     string      `xorm:"LONGTEXT"`
	Kind     CommentKind `xorm:"VARCHAR(16) NOT NULL DEFAULT 'note'"`
	Draft    bool

	ResolvesCommentID int64 `xorm:"INDEX"`

	// Anchor into a pull request version, all zero-valued for global
	// comments. AnchorVersion 0 means "latest".
	AnchorVersion int
	AnchorPath    string
	AnchorLine    int

	Immutable   bool
	LastVersion int `xorm:"NOT NULL DEFAULT 0"`

	CreatedUnix timeutil.TimeStamp `xorm:"INDEX created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"updated"`
}

// CommentHistory records one prior revision of an edited comment.
type CommentHistory struct {
	ID        int64  `xorm:"pk autoincr"`
	CommentID int64  `xorm:"INDEX NOT NULL"`
	Version   int    `xorm:"NOT NULL"`
	Text      string `xorm:"LONGTEXT"`
	EditorID  int64

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func init() {
	db.RegisterModel(new(Comment))
	db.RegisterModel(new(CommentHistory))
}

// GetCommentByID returns the comment by given id if exists.
func GetCommentByID(ctx context.Context, id int64) (*Comment, error) {
	c := new(Comment)
	has, err := db.GetEngine(ctx).ID(id).Get(c)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrCommentNotExist{ID: id}
	}
	return c, nil
}

// CreateComment inserts a new comment.
func CreateComment(ctx context.Context, c *Comment) error {
	return db.Insert(ctx, c)
}

// GetComments returns all comments of a pull request ordered oldest first.
func GetComments(ctx context.Context, prID int64) ([]*Comment, error) {
	comments := make([]*Comment, 0, 16)
	return comments, db.GetEngine(ctx).
		Where("pull_request_id = ?", prID).
		Asc("id").
		Find(&comments)
}

// UpdateComment applies an edit under optimistic concurrency: the edit only
// succeeds when expectedVersion matches the comment's current LastVersion.
// The superseded text is preserved as a CommentHistory entry.
func UpdateComment(ctx context.Context, id int64, expectedVersion int, newText string, editorID int64) (*Comment, error) {
	var c *Comment
	err := db.WithTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = GetCommentByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Immutable {
			return ErrCommentImmutable{ID: c.ID}
		}
		if c.LastVersion != expectedVersion {
			return ErrCommentVersionMismatch{ID: c.ID, Expected: expectedVersion, Current: c.LastVersion}
		}
		if err = db.Insert(ctx, &CommentHistory{
			CommentID: c.ID,
			Version:   c.LastVersion,
			Text:      c.Text,
			EditorID:  editorID,
		}); err != nil {
			return err
		}
		c.Text = newText
		c.LastVersion++
		_, err = db.GetEngine(ctx).ID(c.ID).Cols("text", "last_version").Update(c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCommentHistory returns the edit history of a comment, oldest first.
func GetCommentHistory(ctx context.Context, commentID int64) ([]*CommentHistory, error) {
	history := make([]*CommentHistory, 0, 4)
	return history, db.GetEngine(ctx).
		Where("comment_id = ?", commentID).
		Asc("version").
		Find(&history)
}

// DeleteComment removes a comment and its history.
func DeleteComment(ctx context.Context, id int64) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := db.GetEngine(ctx).ID(id).Delete(new(Comment)); err != nil {
			return err
		}
		_, err := db.GetEngine(ctx).Where("comment_id = ?", id).Delete(new(CommentHistory))
		return err
	})
}
