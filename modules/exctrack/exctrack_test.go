// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package exctrack

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir(), "web")
	require.NoError(t, err)

	id, err := store.Record(errors.New("boom"), RequestInfo{
		ClientAddress: "10.0.0.9",
		Method:        "POST",
		URL:           "/project/pull-request/1/merge",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", snap.Version)
	assert.Equal(t, "boom", snap.Message)
	assert.Equal(t, "*errors.errorString", snap.Type)
	assert.Equal(t, "10.0.0.9", snap.ClientAddress)
	assert.Equal(t, "POST", snap.Method)
}

func TestListAndClean(t *testing.T) {
	store, err := NewStore(t.TempDir(), "worker")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Record(errors.New("boom"), RequestInfo{})
		require.NoError(t, err)
	}
	ids, err := store.List()
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	// Nothing is past a one hour cutoff yet.
	removed, err := store.Clean(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Clean(-time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	ids, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
