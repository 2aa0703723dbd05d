// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"context"

	"xorm.io/xorm"
)

type contextKey struct{}

var enginedContextKey = contextKey{}

// Context wraps a parent context with a database session so nested calls
// share the same transaction.
type Context struct {
	context.Context
	sess *xorm.Session
}

func newContext(ctx context.Context, sess *xorm.Session) *Context {
	return &Context{Context: context.WithValue(ctx, enginedContextKey, sess), sess: sess}
}

// GetEngine returns the session bound to ctx, or a fresh engine binding.
func GetEngine(ctx context.Context) *xorm.Session {
	if sess, ok := ctx.Value(enginedContextKey).(*xorm.Session); ok {
		return sess
	}
	return x.NewSession().Context(ctx)
}

func inTransaction(ctx context.Context) bool {
	sess, ok := ctx.Value(enginedContextKey).(*xorm.Session)
	return ok && sess.IsInTx()
}

// WithTx runs f inside a transaction. If ctx already carries one, f joins it.
func WithTx(parentCtx context.Context, f func(ctx context.Context) error) error {
	if inTransaction(parentCtx) {
		return f(parentCtx)
	}
	sess := x.NewSession().Context(parentCtx)
	defer sess.Close()
	if err := sess.Begin(); err != nil {
		return err
	}
	if err := f(newContext(parentCtx, sess)); err != nil {
		_ = sess.Rollback()
		return err
	}
	return sess.Commit()
}

// Insert inserts the given beans with the engine from ctx
func Insert(ctx context.Context, beans ...any) error {
	_, err := GetEngine(ctx).Insert(beans...)
	return err
}
