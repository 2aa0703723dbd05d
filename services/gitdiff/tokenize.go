// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package gitdiff

import (
	"strings"

	"code.mergebase.io/mergebase/modules/log"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Token is one classified span of file content. Op is set when the token
// belongs to a diff line.
type Token struct {
	Class string
	Text  string
	Op    DiffLineType
}

// Tokenize runs the syntax lexer matched to filename over content. Lexer
// failures degrade to a single unclassified token so rendering never
// breaks on exotic input.
func Tokenize(content, filename string) []Token {
	if content == "" {
		return nil
	}
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		log.Debug("Tokenizing %s failed: %v", filename, err)
		return []Token{{Text: content}}
	}
	tokens := make([]Token, 0, 64)
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		tokens = append(tokens, Token{Class: tok.Type.String(), Text: tok.Value})
	}
	return tokens
}

// SplitTokenStream splits a token stream into per-line sequences. Newlines
// stay attached to the line they terminate, so concatenating every line's
// token texts reproduces the input content byte-exactly. An empty stream
// over non-empty content degrades to one unclassified line.
func SplitTokenStream(tokens []Token, content string) [][]Token {
	if len(tokens) == 0 {
		if content == "" {
			return nil
		}
		// the fallback is a single unclassified line even when the content
		// spans several newlines
		return [][]Token{{{Text: content}}}
	}

	var lines [][]Token
	var current []Token
	for _, tok := range tokens {
		for _, piece := range strings.SplitAfter(tok.Text, "\n") {
			if piece == "" {
				continue
			}
			current = append(current, Token{Class: tok.Class, Text: piece, Op: tok.Op})
			if strings.HasSuffix(piece, "\n") {
				lines = append(lines, current)
				current = nil
			}
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// Rollup coalesces adjacent tokens with the same class and op into the
// minimal sequence that expands back to the input.
func Rollup(tokens []Token) []Token {
	if len(tokens) == 0 {
		return tokens
	}
	rolled := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if n := len(rolled); n > 0 && rolled[n-1].Class == tok.Class && rolled[n-1].Op == tok.Op {
			rolled[n-1].Text += tok.Text
			continue
		}
		rolled = append(rolled, tok)
	}
	return rolled
}
