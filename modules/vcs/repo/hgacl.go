// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	ini "gopkg.in/ini.v1"
)

// hgACLMatcher answers path visibility from per-user include/exclude glob
// lists found in a repository's .hg/hgacl file.
//
// Recognized sections are narrowacl and narrowhgacl; each holds a "default"
// entry and per-user entries of the form "<user>.includes" and
// "<user>.excludes" with comma-separated glob lists. Excludes win over
// includes; an empty include list means everything is included.
type hgACLMatcher struct {
	includes []glob.Glob
	excludes []glob.Glob
}

// PathAllowed reports whether the user may see path
func (m *hgACLMatcher) PathAllowed(path string) bool {
	for _, g := range m.excludes {
		if g.Match(path) {
			return false
		}
	}
	if len(m.includes) == 0 {
		return true
	}
	for _, g := range m.includes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

var hgACLSections = []string{"narrowacl", "narrowhgacl"}

// ParseHgACL parses hgacl content and builds the matcher for one user.
// A malformed file is an error: the caller must refuse to serve the
// repository rather than silently widen access.
func ParseHgACL(content []byte, user string) (PathMatcher, error) {
	cfg, err := ini.Load(content)
	if err != nil {
		return nil, fmt.Errorf("malformed hgacl: %w", err)
	}

	var found bool
	matcher := &hgACLMatcher{}
	for _, sectionName := range hgACLSections {
		section, err := cfg.GetSection(sectionName)
		if err != nil {
			continue
		}
		found = true
		for _, keyName := range []string{user + ".includes", "default.includes"} {
			if section.HasKey(keyName) {
				globs, err := compileGlobList(section.Key(keyName).String())
				if err != nil {
					return nil, err
				}
				matcher.includes = append(matcher.includes, globs...)
				break
			}
		}
		for _, keyName := range []string{user + ".excludes", "default.excludes"} {
			if section.HasKey(keyName) {
				globs, err := compileGlobList(section.Key(keyName).String())
				if err != nil {
					return nil, err
				}
				matcher.excludes = append(matcher.excludes, globs...)
				break
			}
		}
	}
	if !found {
		return nil, nil
	}
	return matcher, nil
}

func compileGlobList(raw string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, pattern := range strings.Split(raw, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("malformed hgacl glob %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
