// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package merge

import (
	"fmt"

	pull_model "code.mergebase.io/mergebase/models/pull"
)

// StatusMessage renders the user-visible explanation of the attempt,
// templated from the failure reason and metadata.
func (r *Response) StatusMessage() string {
	switch r.FailureReason {
	case pull_model.MergeFailureNone:
		return "This pull request can be automatically merged."
	case pull_model.MergeFailureMergeFailed:
		if files, ok := r.Metadata["unresolved_files"].(string); ok && files != "" {
			return fmt.Sprintf("This pull request cannot be merged because of merge conflicts.%s", files)
		}
		return "This pull request cannot be merged because of merge conflicts."
	case pull_model.MergeFailurePushFailed:
		return fmt.Sprintf("Merge failed, pushing the merge commit %v from the shadow repository failed.", r.Metadata["merge_commit"])
	case pull_model.MergeFailureTargetIsNotHead:
		return "Target branch has moved since the pull request was created, please update."
	case pull_model.MergeFailureMissingTargetRef:
		return "Target reference is missing from the repository."
	case pull_model.MergeFailureMissingSourceRef:
		return "Source reference is missing from the repository."
	case pull_model.MergeFailureSubrepoMerge:
		return "Subrepositories of this repository could not be merged."
	case pull_model.MergeFailureHgMultipleHeads:
		return fmt.Sprintf("Target branch has multiple heads: %v.", r.Metadata["heads"])
	case pull_model.MergeFailureNotAllowed:
		return "You are not allowed to merge this pull request."
	default:
		return "This pull request cannot be merged, for an unknown reason."
	}
}
