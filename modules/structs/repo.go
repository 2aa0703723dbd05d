// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package structs

// Repository represents a repository in the API
type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Backend     string `json:"backend"`
	LandingRef  string `json:"landing_ref"`
	Description string `json:"description"`
}
