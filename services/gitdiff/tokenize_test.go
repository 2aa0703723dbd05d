// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package gitdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// joinLines concatenates every token text of every line.
func joinLines(lines [][]Token) string {
	var sb strings.Builder
	for _, line := range lines {
		for _, tok := range line {
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}

func TestSplitTokenStreamNewlineLaw(t *testing.T) {
	contents := []string{
		"package main\n\nfunc main() {}\n",
		"no trailing newline",
		"\n\n\n",
		"single\n",
		"",
		"a\nb",
	}
	for _, content := range contents {
		tokens := Tokenize(content, "main.go")
		lines := SplitTokenStream(tokens, content)
		assert.Equal(t, content, joinLines(lines), "content %q must survive the split", content)
	}
}

func TestSplitTokenStreamLineCounts(t *testing.T) {
	// consecutive newlines produce that many empty-line records, a
	// trailing newline no phantom extra line
	lines := SplitTokenStream([]Token{{Text: "a\n\n\nb\n"}}, "a\n\n\nb\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "a\n", lines[0][0].Text)
	assert.Equal(t, "\n", lines[1][0].Text)
	assert.Equal(t, "\n", lines[2][0].Text)
	assert.Equal(t, "b\n", lines[3][0].Text)
}

func TestSplitTokenStreamEmptyStream(t *testing.T) {
	lines := SplitTokenStream(nil, "fallback content")
	require.Len(t, lines, 1)
	require.Len(t, lines[0], 1)
	assert.Equal(t, "", lines[0][0].Class)
	assert.Equal(t, "fallback content", lines[0][0].Text)

	assert.Nil(t, SplitTokenStream(nil, ""))

	// multiline content still degrades to a single line
	lines = SplitTokenStream(nil, "first\nsecond\n")
	require.Len(t, lines, 1)
	require.Len(t, lines[0], 1)
	assert.Equal(t, "first\nsecond\n", lines[0][0].Text)
}

func TestRollup(t *testing.T) {
	tokens := []Token{
		{Class: "k", Text: "fun", Op: DiffLineAdd},
		{Class: "k", Text: "c", Op: DiffLineAdd},
		{Class: "k", Text: " ", Op: DiffLineDel},
		{Class: "n", Text: "main", Op: DiffLineDel},
	}
	rolled := Rollup(tokens)
	require.Len(t, rolled, 3)
	assert.Equal(t, "func", rolled[0].Text)
	assert.Equal(t, " ", rolled[1].Text)
	assert.Equal(t, "main", rolled[2].Text)

	// expansion reproduces the input up to coalescing
	var original, expanded strings.Builder
	for _, tok := range tokens {
		original.WriteString(tok.Text)
	}
	for _, tok := range rolled {
		expanded.WriteString(tok.Text)
	}
	assert.Equal(t, original.String(), expanded.String())
}

func TestTokenizeNonEmpty(t *testing.T) {
	tokens := Tokenize("package main\n", "main.go")
	require.NotEmpty(t, tokens)

	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	assert.Equal(t, "package main\n", sb.String())

	assert.Nil(t, Tokenize("", "main.go"))
}
