// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package merge implements the merge engine. Every expected failure mode is
// reported through a Response; only transport and programming errors are
// returned as errors.
package merge

import (
	"context"
	"fmt"
	"strings"

	pull_model "code.mergebase.io/mergebase/models/pull"
	"code.mergebase.io/mergebase/modules/log"
	"code.mergebase.io/mergebase/modules/vcs"
	"code.mergebase.io/mergebase/modules/vcs/repo"
	"code.mergebase.io/mergebase/modules/vcs/shadow"
)

// attemptState tracks the progress of one merge attempt. Any state may
// transition to failed.
type attemptState string

const (
	stateInit        attemptState = "INIT"
	stateShadowReady attemptState = "SHADOW_READY"
	stateFetched     attemptState = "FETCHED"
	stateMerged      attemptState = "MERGED"
	statePushed      attemptState = "PUSHED"
	stateFailed      attemptState = "FAILED"
)

// maxReportedHeads bounds the number of head ids included in the
// multiple-heads failure metadata.
const maxReportedHeads = 10

// Options drives one merge attempt.
type Options struct {
	WorkspaceID string
	TargetRef   vcs.Reference
	SourceRepo  repo.Repository
	SourceRef   vcs.Reference
	Message     string
	MergerName  string
	MergerEmail string
	DryRun      bool
	UseRebase   bool
	CloseBranch bool
}

// Response is the outcome of a merge attempt.
type Response struct {
	Possible      bool                          `json:"possible"`
	Executed      bool                          `json:"executed"`
	MergeRef      *vcs.Reference                `json:"merge_ref"`
	FailureReason pull_model.MergeFailureReason `json:"failure_reason"`
	Metadata      map[string]any                `json:"metadata"`
}

func failure(reason pull_model.MergeFailureReason, metadata map[string]any) *Response {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Response{FailureReason: reason, Metadata: metadata}
}

// NotAllowed is the response for attempts rejected before the engine runs:
// missing permission, missing approval or a closed pull request.
func NotAllowed() *Response {
	return failure(pull_model.MergeFailureNotAllowed, nil)
}

func success(mergeRef vcs.Reference) *Response {
	return &Response{
		Possible:      true,
		Executed:      true,
		MergeRef:      &mergeRef,
		FailureReason: pull_model.MergeFailureNone,
		Metadata:      map[string]any{},
	}
}

// Engine performs trial and real merges through shadow workspaces.
type Engine struct {
	shadows *shadow.Manager
}

// NewEngine creates a merge engine on top of the given shadow manager.
func NewEngine(shadows *shadow.Manager) *Engine {
	return &Engine{shadows: shadows}
}

// Merge runs the merge attempt described by opts against target. Expected
// failures come back inside the Response; a non-nil error means transport
// failure or programming error and leaves the attempt outcome unknown.
func (e *Engine) Merge(ctx context.Context, target repo.Repository, opts Options) (*Response, error) {
	state := stateInit
	advance := func(next attemptState) {
		log.Debug("merge attempt on %s: %s -> %s", target.Path(), state, next)
		state = next
	}

	// head check
	headOK, multiHeads, err := e.checkTargetHead(ctx, target, opts.TargetRef)
	if err != nil {
		return nil, err
	}
	if len(multiHeads) > 1 {
		advance(stateFailed)
		return failure(pull_model.MergeFailureHgMultipleHeads, map[string]any{
			"heads": formatHeads(multiHeads),
		}), nil
	}
	if !headOK {
		advance(stateFailed)
		return failure(pull_model.MergeFailureTargetIsNotHead, map[string]any{
			"target_ref": opts.TargetRef,
		}), nil
	}

	shadowRepo, shadowPath, err := e.shadows.MaybePrepare(ctx, target, opts.WorkspaceID, opts.TargetRef, opts.SourceRef)
	if err != nil {
		return nil, err
	}
	release, err := e.shadows.Claim(target.Path(), target.RepoID(), opts.WorkspaceID)
	if err != nil {
		return nil, err
	}
	defer release()
	advance(stateShadowReady)

	// pull target first, then source
	if err := shadowRepo.Pull(ctx, target.Path(), []string{opts.TargetRef.CommitID}); err != nil {
		if !vcs.IsDomainError(err) {
			return nil, err
		}
		advance(stateFailed)
		return failure(pull_model.MergeFailureMissingTargetRef, map[string]any{
			"target_ref": opts.TargetRef,
		}), nil
	}
	if err := shadowRepo.Pull(ctx, opts.SourceRepo.Path(), []string{opts.SourceRef.CommitID}); err != nil {
		if !vcs.IsDomainError(err) {
			return nil, err
		}
		advance(stateFailed)
		return failure(pull_model.MergeFailureMissingSourceRef, map[string]any{
			"source_ref": opts.SourceRef,
		}), nil
	}
	advance(stateFetched)

	sourceRef := opts.SourceRef
	var closeCommitID string
	if opts.CloseBranch && sourceRef.Type == vcs.RefTypeBranch &&
		sourceRef.Name != opts.TargetRef.Name && !opts.UseRebase && !opts.DryRun {
		closeCommitID, err = shadowRepo.CreateCloseCommit(ctx, sourceRef,
			fmt.Sprintf("Closing branch: %s", sourceRef.Name), opts.MergerName, opts.MergerEmail)
		if err != nil {
			if !vcs.IsDomainError(err) {
				return nil, err
			}
			advance(stateFailed)
			return failure(pull_model.MergeFailureMergeFailed, map[string]any{
				"close_branch": sourceRef.Name,
			}), nil
		}
		sourceRef.CommitID = closeCommitID
	}

	mergeCommitID, err := shadowRepo.ShadowMerge(ctx, repo.TrialMergeOptions{
		TargetRef:   opts.TargetRef,
		SourceRef:   sourceRef,
		Message:     opts.Message,
		MergerName:  opts.MergerName,
		MergerEmail: opts.MergerEmail,
		UseRebase:   opts.UseRebase,
		DryRun:      opts.DryRun,
	})
	if err != nil {
		if cleanupErr := shadowRepo.ShadowCleanup(ctx); cleanupErr != nil {
			log.Error("Unable to clean up shadow repository %s after failed merge: %v", shadowPath, cleanupErr)
		}
		if !vcs.IsDomainError(err) {
			return nil, err
		}
		advance(stateFailed)
		return classifyMergeError(err), nil
	}
	advance(stateMerged)

	mergeRef := vcs.Reference{
		Type:     mergeRefType(target.Backend()),
		Name:     vcs.MergeRefName,
		CommitID: mergeCommitID,
	}

	if opts.DryRun {
		return success(mergeRef), nil
	}

	pushRefs := []string{opts.TargetRef.Name}
	if closeCommitID != "" {
		pushRefs = append(pushRefs, opts.SourceRef.Name)
	}
	if err := shadowRepo.ShadowPush(ctx, target.Path(), pushRefs); err != nil {
		if !vcs.IsDomainError(err) {
			return nil, err
		}
		advance(stateFailed)
		return failure(pull_model.MergeFailurePushFailed, map[string]any{
			"target":       fmt.Sprintf("%s shadow repo", target.Backend()),
			"merge_commit": mergeCommitID,
		}), nil
	}
	target.InvalidateVCSCache()
	advance(statePushed)

	return success(mergeRef), nil
}

// checkTargetHead verifies targetRef still points at a current head of the
// target. For Mercurial branches it also returns every head of the branch so
// the caller can reject ambiguous targets.
func (e *Engine) checkTargetHead(ctx context.Context, target repo.Repository, targetRef vcs.Reference) (bool, []string, error) {
	if target.Backend() == vcs.BackendHg && targetRef.Type == vcs.RefTypeBranch {
		heads, err := target.BranchHeads(ctx, targetRef.Name)
		if err != nil {
			return false, nil, err
		}
		if len(heads) > 1 {
			return false, heads, nil
		}
		for _, h := range heads {
			if h == targetRef.CommitID {
				return true, nil, nil
			}
		}
		return false, nil, nil
	}

	branches, err := target.Branches(ctx)
	if err != nil {
		return false, nil, err
	}
	return branches[targetRef.Name] == targetRef.CommitID, nil, nil
}

func mergeRefType(backend vcs.Backend) vcs.RefType {
	if backend == vcs.BackendHg {
		return vcs.RefTypeBookmark
	}
	return vcs.RefTypeBranch
}

// classifyMergeError maps a domain error raised during the shadow merge to
// its failure reason and metadata.
func classifyMergeError(err error) *Response {
	switch {
	case vcs.IsErrUnresolvedFiles(err):
		return failure(pull_model.MergeFailureMergeFailed, map[string]any{
			"unresolved_files": formatConflicts(err.(vcs.ErrUnresolvedFiles).Files),
		})
	case vcs.IsErrSubrepoMerge(err):
		return failure(pull_model.MergeFailureSubrepoMerge, map[string]any{
			"exception": err.Error(),
		})
	default:
		return failure(pull_model.MergeFailureMergeFailed, map[string]any{
			"exception": err.Error(),
		})
	}
}

// formatConflicts renders the unresolved file list as user-visible lines.
func formatConflicts(files []string) string {
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString("\n* conflict: ")
		sb.WriteString(f)
	}
	return sb.String()
}

// formatHeads renders up to maxReportedHeads head ids, truncated with an
// "and N more" suffix.
func formatHeads(heads []string) string {
	shown := heads
	var suffix string
	if len(heads) > maxReportedHeads {
		shown = heads[:maxReportedHeads]
		suffix = fmt.Sprintf("\n,and %d more", len(heads)-maxReportedHeads)
	}
	return strings.Join(shown, "\n,") + suffix
}
