// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shadow manages the on-disk workspaces where trial merges run.
//
// A shadow is a server-side clone of the target repository keyed by
// (repository id, workspace id). It is created lazily on the first merge
// attempt for that key, reused on every later attempt, and left on disk
// until explicit cleanup. Shadows never receive external pushes; only the
// merge engine writes to them.
package shadow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/setting"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/modules/vcs/repo"

	"github.com/gofrs/flock"
)

// Manager prepares and claims shadow workspaces
type Manager struct {
	root        string
	claimMaxAge time.Duration
}

// NewManager creates a manager rooted at the configured shadow directory
func NewManager() *Manager {
	return &Manager{
		root:        setting.Repository.ShadowRoot,
		claimMaxAge: time.Duration(setting.Repository.ShadowClaimMaxAge) * time.Second,
	}
}

// Path derives the deterministic shadow location for a repository and
// workspace. The hash keeps nested repository names from escaping the root.
func (m *Manager) Path(repoPath string, repoID int64, workspaceID string) string {
	sum := sha256.Sum256([]byte(repoPath))
	return filepath.Join(m.root, fmt.Sprintf("%d", repoID), hex.EncodeToString(sum[:8]), workspaceID)
}

// MaybePrepare returns a handle bound to the shadow for (target, workspace),
// cloning it first if it does not exist yet. The caller must hold the
// workspace claim (see Claim) when it intends to write.
func (m *Manager) MaybePrepare(ctx context.Context, target repo.Repository, workspaceID string, targetRef, sourceRef vcs.Reference) (repo.Repository, string, error) {
	shadowPath := m.Path(target.Path(), target.RepoID(), workspaceID)

	if _, err := os.Stat(shadowPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(shadowPath), 0o700); err != nil {
			return nil, "", fmt.Errorf("unable to create shadow parent for %s: %w", shadowPath, err)
		}
		if err := target.CloneTo(ctx, shadowPath, targetRef.Name); err != nil {
			return nil, "", err
		}
		log.Debug("created shadow repository %s for %s", shadowPath, target.Path())
	} else if err != nil {
		return nil, "", err
	}

	sh := target.GetShadowInstance(shadowPath, false)

	// The clone only tracked the target branch; make the source branch
	// resolvable inside the shadow when it differs.
	if target.Backend() == vcs.BackendGit && sourceRef.Name != "" && sourceRef.Name != targetRef.Name {
		if err := sh.Fetch(ctx, target.Path(), []string{sourceRef.Name}); err != nil {
			return nil, "", err
		}
	}
	return sh, shadowPath, nil
}

// Claim takes the single-writer claim on a workspace. A claim file older
// than the configured max age is treated as abandoned and reclaimed.
func (m *Manager) Claim(repoPath string, repoID int64, workspaceID string) (release func(), err error) {
	shadowPath := m.Path(repoPath, repoID, workspaceID)
	if err := os.MkdirAll(filepath.Dir(shadowPath), 0o700); err != nil {
		return nil, err
	}
	claimPath := shadowPath + ".claim"

	if info, statErr := os.Stat(claimPath); statErr == nil && time.Since(info.ModTime()) > m.claimMaxAge {
		log.Warn("reclaiming abandoned shadow claim %s (age %v)", claimPath, time.Since(info.ModTime()))
		_ = os.Remove(claimPath)
	}

	lock := flock.New(claimPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("shadow workspace %s is claimed by another worker", workspaceID)
	}
	now := time.Now()
	_ = os.Chtimes(claimPath, now, now)
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Error("unable to release shadow claim %s: %v", claimPath, err)
		}
	}, nil
}

// Remove deletes every shadow of a repository. Called when the target
// repository is deleted.
func (m *Manager) Remove(repoPath string, repoID int64) error {
	return os.RemoveAll(filepath.Join(m.root, fmt.Sprintf("%d", repoID)))
}

// CloneURL is the address reviewers can fetch the merge preview from
func (m *Manager) CloneURL(repoID int64, workspaceID string) string {
	return fmt.Sprintf("%s%d/shadow/%s", setting.Server.AppURL, repoID, workspaceID)
}
