// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package pull

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/timeutil"
)

// ErrAttachmentTypeNotAllowed is returned for uploads whose extension is
// outside the configured allow-list.
type ErrAttachmentTypeNotAllowed struct {
	Name string
}

// IsErrAttachmentTypeNotAllowed checks if an error is a ErrAttachmentTypeNotAllowed.
func IsErrAttachmentTypeNotAllowed(err error) bool {
	_, ok := err.(ErrAttachmentTypeNotAllowed)
	return ok
}

func (err ErrAttachmentTypeNotAllowed) Error() string {
	return fmt.Sprintf("attachment type is not allowed [name: %s]", err.Name)
}

// ErrAttachmentTooLarge is returned for uploads exceeding the size cap.
type ErrAttachmentTooLarge struct {
	Name string
	Size int64
}

// IsErrAttachmentTooLarge checks if an error is a ErrAttachmentTooLarge.
func IsErrAttachmentTooLarge(err error) bool {
	_, ok := err.(ErrAttachmentTooLarge)
	return ok
}

func (err ErrAttachmentTooLarge) Error() string {
	return fmt.Sprintf("attachment is too large [name: %s, size: %d]", err.Name, err.Size)
}

// Attachment binds an uploaded file in the file store to a comment via its
// store uid.
type Attachment struct {
	ID        int64  `xorm:"pk autoincr"`
	StoreUID  string `xorm:"UNIQUE NOT NULL"`
	CommentID int64  `xorm:"INDEX NOT NULL"`
	Name      string
	Size      int64

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func init() {
	db.RegisterModel(new(Attachment))
}

// ValidateAttachment checks the file name against the extension allow-list
// and the size against the configured cap.
func ValidateAttachment(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, a := range setting.Attachment.AllowedTypes {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrAttachmentTypeNotAllowed{Name: name}
	}
	if size > setting.Attachment.MaxSize {
		return ErrAttachmentTooLarge{Name: name, Size: size}
	}
	return nil
}

// BindAttachment validates and attaches an uploaded file to a comment.
func BindAttachment(ctx context.Context, a *Attachment) error {
	if err := ValidateAttachment(a.Name, a.Size); err != nil {
		return err
	}
	return db.Insert(ctx, a)
}

// GetAttachments returns the attachments bound to a comment.
func GetAttachments(ctx context.Context, commentID int64) ([]*Attachment, error) {
	attachments := make([]*Attachment, 0, 4)
	return attachments, db.GetEngine(ctx).
		Where("comment_id = ?", commentID).
		Asc("id").
		Find(&attachments)
}
