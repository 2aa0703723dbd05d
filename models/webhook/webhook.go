// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package webhook contains the webhook subscription and delivery models.
package webhook

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/models/db"
	"code.mergebase.io/mergebase/modules/timeutil"
	"code.mergebase.io/mergebase/modules/util"
	webhook_module "code.mergebase.io/mergebase/modules/webhook"
)

// HTTPMethod is the delivery method of a webhook
type HTTPMethod string

const (
	MethodGet  HTTPMethod = "GET"
	MethodPost HTTPMethod = "POST"
	MethodPut  HTTPMethod = "PUT"
)

// ErrWebhookNotExist represents a "WebhookNotExist" kind of error.
type ErrWebhookNotExist struct {
	ID int64
}

// IsErrWebhookNotExist checks if an error is a ErrWebhookNotExist.
func IsErrWebhookNotExist(err error) bool {
	_, ok := err.(ErrWebhookNotExist)
	return ok
}

func (err ErrWebhookNotExist) Error() string {
	return fmt.Sprintf("webhook does not exist [id: %d]", err.ID)
}

func (err ErrWebhookNotExist) Unwrap() error {
	return util.ErrNotExist
}

// Webhook is one subscription. URL may contain ${event_name},
// ${pull_request_id}, ${commit_id} and ${branch} placeholders.
type Webhook struct {
	ID     int64 `xorm:"pk autoincr"`
	RepoID int64 `xorm:"INDEX"` // 0 subscribes to every repository

	URL    string     `xorm:"url TEXT NOT NULL"`
	Method HTTPMethod `xorm:"VARCHAR(8) NOT NULL DEFAULT 'POST'"`
	Active bool       `xorm:"NOT NULL DEFAULT true"`

	Events []webhook_module.HookEventType `xorm:"TEXT JSON"`

	// HTTP Basic credentials, empty when unused.
	BasicAuthUser     string
	BasicAuthPassword string
	// Custom auth header, empty when unused.
	AuthHeaderName  string
	AuthHeaderValue string

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
	UpdatedUnix timeutil.TimeStamp `xorm:"updated"`
}

// HasEvent reports whether the webhook subscribes to the event.
func (w *Webhook) HasEvent(event webhook_module.HookEventType) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// HookTask is one pending or delivered webhook call.
type HookTask struct {
	ID        int64  `xorm:"pk autoincr"`
	HookID    int64  `xorm:"INDEX NOT NULL"`
	UUID      string `xorm:"UNIQUE NOT NULL"`
	EventName string `xorm:"NOT NULL"`
	Payload   string `xorm:"LONGTEXT"`

	// Expanded values available to URL templating.
	PullRequestID int64
	CommitIDs     []string `xorm:"TEXT JSON"`
	Branch        string

	Attempts     int
	Delivered    bool
	Succeeded    bool
	ResponseInfo string `xorm:"TEXT"`

	CreatedUnix timeutil.TimeStamp `xorm:"created"`
}

func init() {
	db.RegisterModel(new(Webhook))
	db.RegisterModel(new(HookTask))
}

// CreateWebhook inserts a new webhook subscription.
func CreateWebhook(ctx context.Context, w *Webhook) error {
	return db.Insert(ctx, w)
}

// GetWebhookByID returns the webhook by given id if exists.
func GetWebhookByID(ctx context.Context, id int64) (*Webhook, error) {
	w := new(Webhook)
	has, err := db.GetEngine(ctx).ID(id).Get(w)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrWebhookNotExist{ID: id}
	}
	return w, nil
}

// ActiveWebhooks returns every active webhook subscribed to the event for
// the repository, including global subscriptions.
func ActiveWebhooks(ctx context.Context, repoID int64, event webhook_module.HookEventType) ([]*Webhook, error) {
	hooks := make([]*Webhook, 0, 4)
	if err := db.GetEngine(ctx).
		Where("active = ?", true).
		And("repo_id = ? OR repo_id = 0", repoID).
		Find(&hooks); err != nil {
		return nil, err
	}
	matching := hooks[:0]
	for _, w := range hooks {
		if w.HasEvent(event) {
			matching = append(matching, w)
		}
	}
	return matching, nil
}

// CreateHookTask inserts a delivery task.
func CreateHookTask(ctx context.Context, t *HookTask) error {
	return db.Insert(ctx, t)
}

// GetHookTaskByID returns the task by given id if exists.
func GetHookTaskByID(ctx context.Context, id int64) (*HookTask, error) {
	t := new(HookTask)
	has, err := db.GetEngine(ctx).ID(id).Get(t)
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrWebhookNotExist{ID: id}
	}
	return t, nil
}

// UpdateHookTask persists the delivery outcome fields.
func UpdateHookTask(ctx context.Context, t *HookTask) error {
	_, err := db.GetEngine(ctx).ID(t.ID).
		Cols("attempts", "delivered", "succeeded", "response_info").
		Update(t)
	return err
}
