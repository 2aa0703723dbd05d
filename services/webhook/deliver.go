// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	webhook_model "code.mergebase.io/mergebase/models/webhook"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/setting"

	"golang.org/x/sync/errgroup"
)

// maxParallelDeliveries bounds concurrent calls for one multi-commit task.
const maxParallelDeliveries = 5

// ExpandURLs substitutes the template placeholders of a webhook URL. A URL
// referencing ${commit_id} expands into one call per unique commit id; all
// other placeholders are single-valued.
func ExpandURLs(tmpl string, task *webhook_model.HookTask) []string {
	expand := func(url, commitID string) string {
		url = strings.ReplaceAll(url, "${event_name}", task.EventName)
		url = strings.ReplaceAll(url, "${pull_request_id}", strconv.FormatInt(task.PullRequestID, 10))
		url = strings.ReplaceAll(url, "${branch}", task.Branch)
		url = strings.ReplaceAll(url, "${commit_id}", commitID)
		return url
	}

	if !strings.Contains(tmpl, "${commit_id}") {
		return []string{expand(tmpl, "")}
	}

	seen := map[string]bool{}
	urls := make([]string, 0, len(task.CommitIDs))
	for _, id := range task.CommitIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		urls = append(urls, expand(tmpl, id))
	}
	if len(urls) == 0 {
		urls = append(urls, expand(tmpl, ""))
	}
	return urls
}

// deliverClient is swapped by tests.
var deliverClient = func() *http.Client {
	return &http.Client{Timeout: setting.Webhook.DeliverTimeout}
}

type deliverResult struct {
	ok       bool
	attempts int
	info     string
}

// Deliver performs one webhook call per expanded URL, retrying each with
// exponential backoff. URLs of one task are called in parallel. A final
// non-2xx status is logged and absorbed; the platform transaction that
// produced the event is never affected.
func Deliver(ctx context.Context, hook *webhook_model.Webhook, task *webhook_model.HookTask) error {
	client := deliverClient()
	urls := ExpandURLs(hook.URL, task)
	results := make([]deliverResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeliveries)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			results[i] = deliverOne(gctx, client, hook, task, url)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := true
	var lastInfo string
	for _, r := range results {
		task.Attempts += r.attempts
		lastInfo = r.info
		if !r.ok {
			succeeded = false
		}
	}

	task.Delivered = true
	task.Succeeded = succeeded
	task.ResponseInfo = lastInfo
	if err := webhook_model.UpdateHookTask(ctx, task); err != nil {
		return err
	}
	if !succeeded {
		log.Warn("Webhook %d delivery for %s gave up after %d attempts: %s", hook.ID, task.EventName, task.Attempts, lastInfo)
	}
	return nil
}

func deliverOne(ctx context.Context, client *http.Client, hook *webhook_model.Webhook, task *webhook_model.HookTask, url string) deliverResult {
	backoff := setting.Webhook.BackoffBase
	result := deliverResult{}

	for attempt := 1; attempt <= setting.Webhook.MaxAttempts; attempt++ {
		result.attempts++
		status, err := post(ctx, client, hook, task, url)
		if err == nil && status >= 200 && status < 300 {
			result.ok = true
			result.info = fmt.Sprintf("status %d", status)
			return result
		}
		if err != nil {
			result.info = err.Error()
		} else {
			result.info = fmt.Sprintf("status %d", status)
		}
		log.Debug("Webhook %d attempt %d to %s failed: %s", hook.ID, attempt, url, result.info)

		if attempt == setting.Webhook.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			result.info = ctx.Err().Error()
			return result
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return result
}

func post(ctx context.Context, client *http.Client, hook *webhook_model.Webhook, task *webhook_model.HookTask, url string) (int, error) {
	method := string(hook.Method)
	if method == "" {
		method = http.MethodPost
	}
	var body io.Reader
	if method != http.MethodGet {
		body = strings.NewReader(task.Payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Event-Name", task.EventName)
	req.Header.Set("X-Delivery", task.UUID)
	if hook.BasicAuthUser != "" {
		req.SetBasicAuth(hook.BasicAuthUser, hook.BasicAuthPassword)
	}
	if hook.AuthHeaderName != "" {
		req.Header.Set(hook.AuthHeaderName, hook.AuthHeaderValue)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}
