// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"code.mergebase.io/mergebase/models/unittest"
	webhook_model "code.mergebase.io/mergebase/models/webhook"
	"code.mergebase.io/mergebase/modules/setting"
	webhook_module "code.mergebase.io/mergebase/modules/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandURLs(t *testing.T) {
	task := &webhook_model.HookTask{
		EventName:     "pullrequest-merge",
		PullRequestID: 42,
		Branch:        "master",
		CommitIDs:     []string{"aaa", "bbb", "aaa"},
	}

	urls := ExpandURLs("https://ci.example.com/${event_name}/${pull_request_id}?b=${branch}", task)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://ci.example.com/pullrequest-merge/42?b=master", urls[0])

	// one call per unique commit id
	urls = ExpandURLs("https://ci.example.com/commit/${commit_id}", task)
	assert.Equal(t, []string{
		"https://ci.example.com/commit/aaa",
		"https://ci.example.com/commit/bbb",
	}, urls)
}

func TestDeliverRetriesWithBackoff(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	setting.Webhook.MaxAttempts = 3
	setting.Webhook.BackoffBase = time.Millisecond

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "pullrequest-merge", r.Header.Get("X-Event-Name"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "hookuser", user)
		assert.Equal(t, "hookpass", pass)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	hook := &webhook_model.Webhook{
		URL:               srv.URL,
		Method:            webhook_model.MethodPost,
		Active:            true,
		Events:            []webhook_module.HookEventType{webhook_module.HookEventPullRequestMerge},
		BasicAuthUser:     "hookuser",
		BasicAuthPassword: "hookpass",
	}
	require.NoError(t, webhook_model.CreateWebhook(ctx, hook))
	task := &webhook_model.HookTask{
		HookID:    hook.ID,
		UUID:      "test-delivery-1",
		EventName: "pullrequest-merge",
		Payload:   `{"event_name":"pullrequest-merge"}`,
	}
	require.NoError(t, webhook_model.CreateHookTask(ctx, task))

	require.NoError(t, Deliver(ctx, hook, task))
	assert.EqualValues(t, 3, calls.Load())
	assert.True(t, task.Delivered)
	assert.True(t, task.Succeeded)
	assert.Equal(t, 3, task.Attempts)
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	setting.Webhook.MaxAttempts = 2
	setting.Webhook.BackoffBase = time.Millisecond

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx := context.Background()
	hook := &webhook_model.Webhook{URL: srv.URL, Method: webhook_model.MethodPost, Active: true}
	require.NoError(t, webhook_model.CreateWebhook(ctx, hook))
	task := &webhook_model.HookTask{HookID: hook.ID, UUID: "test-delivery-2", EventName: "repo-push"}
	require.NoError(t, webhook_model.CreateHookTask(ctx, task))

	// a failed delivery is absorbed, never an error
	require.NoError(t, Deliver(ctx, hook, task))
	assert.EqualValues(t, 2, calls.Load())
	assert.True(t, task.Delivered)
	assert.False(t, task.Succeeded)
	assert.Equal(t, "status 500", task.ResponseInfo)
}

func TestActiveWebhooksFiltersEvents(t *testing.T) {
	unittest.PrepareTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, webhook_model.CreateWebhook(ctx, &webhook_model.Webhook{
		RepoID: 1, URL: "https://a.example.com", Active: true,
		Events: []webhook_module.HookEventType{webhook_module.HookEventRepoPush},
	}))
	require.NoError(t, webhook_model.CreateWebhook(ctx, &webhook_model.Webhook{
		RepoID: 0, URL: "https://global.example.com", Active: true,
		Events: []webhook_module.HookEventType{webhook_module.HookEventRepoPush},
	}))
	require.NoError(t, webhook_model.CreateWebhook(ctx, &webhook_model.Webhook{
		RepoID: 1, URL: "https://b.example.com", Active: true,
		Events: []webhook_module.HookEventType{webhook_module.HookEventPullRequestMerge},
	}))

	hooks, err := webhook_model.ActiveWebhooks(ctx, 1, webhook_module.HookEventRepoPush)
	require.NoError(t, err)
	require.Len(t, hooks, 2)
}
