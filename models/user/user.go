// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package user contains the user model.
package user

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/timeutil"
	"code.mergebase.io/mergebase/modules/util"
)

// ErrUserNotExist represents a "UserNotExist" kind of error.
type ErrUserNotExist struct {
	UID  int64
	Name string
}

// IsErrUserNotExist checks if an error is a ErrUserNotExist.
func IsErrUserNotExist(err error) bool {
	_, ok := err.(ErrUserNotExist)
	return ok
}

func (err ErrUserNotExist) Error() string {
	return fmt.Sprintf("user does not exist [uid: %d, name: %s]", err.UID, err.Name)
}

func (err ErrUserNotExist) Unwrap() error {
	return util.ErrNotExist
}

// User represents a platform account.
type User struct {
	ID       int64  `xorm:"pk autoincr"`
	Name     string `xorm:"UNIQUE NOT NULL"`
	FullName string
	Email    string `xorm:"NOT NULL"`
	IsAdmin  bool
	IsActive bool

	CreatedUnix timeutil.TimeStamp `xorm:"INDEX created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"INDEX updated"`
}

func init() {
	db.RegisterModel(new(User))
}

// DisplayName returns the full name if set, otherwise the login name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Name
}

// AuthorLine returns "name <email>" as used for merge commit authorship.
func (u *User) AuthorLine() string {
	return fmt.Sprintf("%s <%s>", u.DisplayName(), u.Email)
}

// GetUserByID returns the user by given id if exists.
func GetUserByID(ctx context.Context, id int64) (*User, error) {
	u := new(User)
	has, err := db.GetEngine(ctx).ID(id).Get(u)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrUserNotExist{UID: id}
	}
	return u, nil
}

// GetUserByName returns the user by given name if exists.
func GetUserByName(ctx context.Context, name string) (*User, error) {
	u := new(User)
	has, err := db.GetEngine(ctx).Where("name = ?", name).Get(u)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrUserNotExist{Name: name}
	}
	return u, nil
}

// GetUsersByNames resolves a list of user names, failing on the first
// unknown name.
func GetUsersByNames(ctx context.Context, names []string) ([]*User, error) {
	users := make([]*User, 0, len(names))
	for _, name := range names {
		u, err := GetUserByName(ctx, name)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
