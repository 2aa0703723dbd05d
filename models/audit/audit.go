// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package audit stores the append-only action journal.
package audit

import (
	"context"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/timeutil"
)

// Event is one recorded action. Action names are dotted paths such as
// "repo.pull_request.merge".
type Event struct {
	ID            int64          `xorm:"pk autoincr"`
	Action        string         `xorm:"INDEX NOT NULL"`
	UserID        int64          `xorm:"INDEX"`
	RepoID        int64          `xorm:"INDEX"`
	PullRequestID int64          `xorm:"INDEX"`
	Data          map[string]any `xorm:"TEXT JSON"`

	CreatedUnix timeutil.TimeStamp `xorm:"INDEX created"`
}

func init() {
	db.RegisterModel(new(Event))
}

// Record appends one event to the journal.
func Record(ctx context.Context, e *Event) error {
	return db.Insert(ctx, e)
}

// GetEvents returns the journal for a pull request in insertion order.
func GetEvents(ctx context.Context, prID int64) ([]*Event, error) {
	events := make([]*Event, 0, 8)
	return events, db.GetEngine(ctx).
		Where("pull_request_id = ?", prID).
		Asc("id").
		Find(&events)
}
