// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package webhook delivers event payloads to subscribed endpoints through
// a persistent queue.
package webhook

import (
	"context"
	"fmt"

	"code.mergebase.io/mergebase/models/db"
	webhook_model "code.mergebase.io/mergebase/models/webhook"
	"code.mergebase.io/mergebase/modules/json"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/queue"
	webhook_module "code.mergebase.io/mergebase/modules/webhook"

	"github.com/google/uuid"
)

var hookQueue *queue.Queue[int64]

// Init creates and starts the delivery queue.
func Init() error {
	q, err := queue.New("webhook", handleTask)
	if err != nil {
		return fmt.Errorf("unable to create webhook queue: %w", err)
	}
	hookQueue = q
	go hookQueue.Run()
	return nil
}

// Shutdown stops the delivery queue.
func Shutdown() {
	if hookQueue != nil {
		hookQueue.Shutdown()
	}
}

func handleTask(ctx context.Context, taskID int64) error {
	task, err := webhook_model.GetHookTaskByID(ctx, taskID)
	if err != nil {
		log.Error("Unable to load webhook task %d: %v", taskID, err)
		return nil
	}
	if task.Delivered {
		return nil
	}
	hook, err := webhook_model.GetWebhookByID(ctx, task.HookID)
	if err != nil {
		log.Error("Unable to load webhook %d for task %d: %v", task.HookID, taskID, err)
		return nil
	}
	return Deliver(ctx, hook, task)
}

// EnqueueEvent persists one delivery task per subscribed webhook and hands
// them to the queue. Failures are logged and absorbed.
func EnqueueEvent(ctx context.Context, repoID int64, event webhook_module.HookEventType, payload any, prID int64, branch string, commitIDs []string) {
	hooks, err := webhook_model.ActiveWebhooks(ctx, repoID, event)
	if err != nil {
		log.Error("Unable to find webhooks for %s on repo %d: %v", event, repoID, err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("Unable to marshal %s payload: %v", event, err)
		return
	}

	for _, hook := range hooks {
		task := &webhook_model.HookTask{
			HookID:        hook.ID,
			UUID:          uuid.NewString(),
			EventName:     string(event),
			Payload:       string(body),
			PullRequestID: prID,
			Branch:        branch,
			CommitIDs:     commitIDs,
		}
		if err := webhook_model.CreateHookTask(db.DefaultContext, task); err != nil {
			log.Error("Unable to persist webhook task for hook %d: %v", hook.ID, err)
			continue
		}
		if hookQueue == nil {
			continue
		}
		if err := hookQueue.Push(task.ID); err != nil {
			log.Error("Unable to enqueue webhook task %d: %v", task.ID, err)
		}
	}
}
