// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package vcs

import (
	"fmt"
	"strings"

	"code.mergebase.io/mergebase/modules/util"
)

// ErrRepository is the generic VCS domain error. Remote aborts, locked
// repositories and unclassified backend failures all surface as this type.
type ErrRepository struct {
	Message   string
	Traceback string // remote traceback, empty for local failures
}

// IsErrRepository checks if an error is an ErrRepository
func IsErrRepository(err error) bool {
	_, ok := err.(ErrRepository)
	return ok
}

func (err ErrRepository) Error() string {
	return err.Message
}

// ErrEmptyRepository indicates an operation on a repository without commits
type ErrEmptyRepository struct {
	RepoName string
}

// IsErrEmptyRepository checks if an error is an ErrEmptyRepository
func IsErrEmptyRepository(err error) bool {
	_, ok := err.(ErrEmptyRepository)
	return ok
}

func (err ErrEmptyRepository) Error() string {
	return fmt.Sprintf("repository %s is empty", err.RepoName)
}

func (err ErrEmptyRepository) Unwrap() error {
	return util.ErrNotExist
}

// ErrCommitDoesNotExist indicates a commit lookup that found nothing
type ErrCommitDoesNotExist struct {
	CommitID  string
	RepoName  string
	Traceback string
}

// IsErrCommitDoesNotExist checks if an error is an ErrCommitDoesNotExist
func IsErrCommitDoesNotExist(err error) bool {
	_, ok := err.(ErrCommitDoesNotExist)
	return ok
}

func (err ErrCommitDoesNotExist) Error() string {
	return fmt.Sprintf("commit does not exist [repo: %s, id: %s]", err.RepoName, err.CommitID)
}

func (err ErrCommitDoesNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrRepositoryRequirement indicates a repository the server refuses to
// operate on: missing requirements or an unparsable ACL file.
type ErrRepositoryRequirement struct {
	Message   string
	Traceback string
}

// IsErrRepositoryRequirement checks if an error is an ErrRepositoryRequirement
func IsErrRepositoryRequirement(err error) bool {
	_, ok := err.(ErrRepositoryRequirement)
	return ok
}

func (err ErrRepositoryRequirement) Error() string {
	return err.Message
}

// ErrImproperArchiveType indicates an unsupported archive format request
type ErrImproperArchiveType struct {
	Kind string
}

// IsErrImproperArchiveType checks if an error is an ErrImproperArchiveType
func IsErrImproperArchiveType(err error) bool {
	_, ok := err.(ErrImproperArchiveType)
	return ok
}

func (err ErrImproperArchiveType) Error() string {
	return fmt.Sprintf("unsupported archive type: %s", err.Kind)
}

func (err ErrImproperArchiveType) Unwrap() error {
	return util.ErrInvalidArgument
}

// ErrSubrepoMerge indicates a Mercurial merge that touched a subrepository
type ErrSubrepoMerge struct {
	Message   string
	Traceback string
}

// IsErrSubrepoMerge checks if an error is an ErrSubrepoMerge
func IsErrSubrepoMerge(err error) bool {
	_, ok := err.(ErrSubrepoMerge)
	return ok
}

func (err ErrSubrepoMerge) Error() string {
	return err.Message
}

// ErrUnresolvedFiles indicates a merge or rebase stopped by conflicts.
// Files holds the offending paths, sorted.
type ErrUnresolvedFiles struct {
	Files []string
}

// IsErrUnresolvedFiles checks if an error is an ErrUnresolvedFiles
func IsErrUnresolvedFiles(err error) bool {
	_, ok := err.(ErrUnresolvedFiles)
	return ok
}

func (err ErrUnresolvedFiles) Error() string {
	return fmt.Sprintf("unresolved files in repository: %s", strings.Join(err.Files, ", "))
}

// ErrTagAlreadyExists indicates a duplicate tag creation
type ErrTagAlreadyExists struct {
	TagName string
}

// IsErrTagAlreadyExists checks if an error is an ErrTagAlreadyExists
func IsErrTagAlreadyExists(err error) bool {
	_, ok := err.(ErrTagAlreadyExists)
	return ok
}

func (err ErrTagAlreadyExists) Error() string {
	return fmt.Sprintf("tag %s already exists", err.TagName)
}

func (err ErrTagAlreadyExists) Unwrap() error {
	return util.ErrAlreadyExist
}

// ErrVCSCommunication indicates a transport failure talking to the VCS
// server. Never retried by the client itself.
type ErrVCSCommunication struct {
	URL string
	Err error
}

// IsErrVCSCommunication checks if an error is an ErrVCSCommunication
func IsErrVCSCommunication(err error) bool {
	_, ok := err.(ErrVCSCommunication)
	return ok
}

func (err ErrVCSCommunication) Error() string {
	return fmt.Sprintf("unable to communicate with VCS server at %s: %v", err.URL, err.Err)
}

func (err ErrVCSCommunication) Unwrap() error {
	return err.Err
}

// ErrRemoteUnhandled carries a programming error raised on the VCS server
// side; it is never swallowed by the merge engine.
type ErrRemoteUnhandled struct {
	Type      string
	Message   string
	Traceback string
}

// IsErrRemoteUnhandled checks if an error is an ErrRemoteUnhandled
func IsErrRemoteUnhandled(err error) bool {
	_, ok := err.(ErrRemoteUnhandled)
	return ok
}

func (err ErrRemoteUnhandled) Error() string {
	return fmt.Sprintf("unhandled remote exception %s: %s", err.Type, err.Message)
}

// IsDomainError reports whether err belongs to the recoverable VCS domain
// error set that the merge engine classifies into a MergeResponse.
func IsDomainError(err error) bool {
	switch err.(type) {
	case ErrRepository, ErrEmptyRepository, ErrCommitDoesNotExist,
		ErrSubrepoMerge, ErrUnresolvedFiles, ErrTagAlreadyExists:
		return true
	}
	return false
}
