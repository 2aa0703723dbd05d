// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gitdiff parses raw unified diffs into reviewable file records and
// tokenizes file content for rendering.
package gitdiff

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"code.mergebase.io/mergebase/modules/setting"
)

// DiffLineType is the type of a DiffLine
type DiffLineType string

const (
	DiffLineContext DiffLineType = "context"
	DiffLineAdd     DiffLineType = "add"
	DiffLineDel     DiffLineType = "del"
)

// FileNodeOp marks one orthogonal change recorded on a file. Several may
// co-occur on the same file.
type FileNodeOp string

const (
	OpNewFile     FileNodeOp = "NEW_FILENODE"
	OpModFile     FileNodeOp = "MOD_FILENODE"
	OpDelFile     FileNodeOp = "DEL_FILENODE"
	OpRenamedFile FileNodeOp = "RENAMED_FILENODE"
	OpCopiedFile  FileNodeOp = "COPIED_FILENODE"
	OpChmodFile   FileNodeOp = "CHMOD_FILENODE"
	OpBinFile     FileNodeOp = "BIN_FILENODE"
)

// Operation is the file-level classification exposed to reviewers.
type Operation string

const (
	OperationAdd    Operation = "A"
	OperationModify Operation = "M"
	OperationDelete Operation = "D"
)

// binaryHunkText is the synthetic hunk body of a binary file.
const binaryHunkText = "binary diff hidden"

// DiffLine is one line of a hunk body.
type DiffLine struct {
	Type    DiffLineType
	Content string
	OldLine int
	NewLine int
	// NoNewlineEOF is set on the last line of a hunk that carries the
	// "\ No newline at end of file" marker.
	NoNewlineEOF bool
}

// DiffChunk is one @@-delimited hunk.
type DiffChunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []*DiffLine
}

// DiffStats are the per-file line counts.
type DiffStats struct {
	Added   int  `json:"added"`
	Deleted int  `json:"deleted"`
	Binary  bool `json:"binary"`
}

// DiffFile is one parsed file of a diff. Filename holds the raw bytes as
// they appeared on the wire; use DisplayName for rendering.
type DiffFile struct {
	Filename    string
	OldFilename string
	Operation   Operation
	Stats       DiffStats
	Ops         map[FileNodeOp]string
	Chunks      []*DiffChunk
	LimitedDiff bool

	rawDiff []byte
}

// AsRaw returns the file's byte-exact slice of the original diff.
func (f *DiffFile) AsRaw() []byte {
	return f.rawDiff
}

// DisplayName escapes control bytes and quotes embedded in the filename for
// safe rendering. The stored Filename stays byte-exact.
func (f *DiffFile) DisplayName() string {
	if strings.ContainsAny(f.Filename, "\"\\\r\n") {
		return strconv.Quote(f.Filename)
	}
	return f.Filename
}

// DiffSet is the parse result of one raw diff.
type DiffSet struct {
	Files       []*DiffFile
	LimitedDiff bool
}

// AsRaw reassembles the exact input diff from the per-file slices.
func (ds *DiffSet) AsRaw() []byte {
	var buf bytes.Buffer
	for _, f := range ds.Files {
		buf.Write(f.rawDiff)
	}
	return buf.Bytes()
}

// Limits bound the parse output size.
type Limits struct {
	// DiffLimit caps the cumulative parsed size; files beyond it keep
	// their stats but lose their chunks.
	DiffLimit int
	// FileLimit caps a single file's parsed size.
	FileLimit int
}

// DefaultLimits returns the configured limits.
func DefaultLimits() Limits {
	return Limits{DiffLimit: setting.Diff.DiffLimit, FileLimit: setting.Diff.FileLimit}
}

// ParseDiff parses a raw unified diff in the git dialect, which both Git
// and Mercurial produce.
func ParseDiff(raw []byte, limits Limits) (*DiffSet, error) {
	ds := &DiffSet{}
	if len(raw) == 0 {
		return ds, nil
	}

	segments := splitFileSegments(raw)
	cumulative := 0
	exceeded := false
	for _, segment := range segments {
		file, err := parseFileSegment(segment)
		if err != nil {
			return nil, err
		}
		switch {
		case limits.FileLimit > 0 && len(segment) > limits.FileLimit:
			// a single oversized file is dropped on its own and does not
			// poison the budget of the files after it
			file.LimitedDiff = true
			file.Chunks = nil
		case exceeded || (limits.DiffLimit > 0 && cumulative+len(segment) > limits.DiffLimit):
			// the cumulative budget is sticky: every file after the one
			// that trips it is limited too
			exceeded = true
			file.LimitedDiff = true
			file.Chunks = nil
		default:
			cumulative += len(segment)
		}
		if file.LimitedDiff {
			ds.LimitedDiff = true
		}
		ds.Files = append(ds.Files, file)
	}
	return ds, nil
}

// splitFileSegments cuts the raw diff at every "diff --git" header so each
// segment reassembles byte-exactly.
func splitFileSegments(raw []byte) [][]byte {
	marker := []byte("diff --git ")
	var segments [][]byte
	start := -1
	offset := 0
	for offset < len(raw) {
		lineEnd := bytes.IndexByte(raw[offset:], '\n')
		var next int
		if lineEnd < 0 {
			next = len(raw)
		} else {
			next = offset + lineEnd + 1
		}
		if bytes.HasPrefix(raw[offset:], marker) {
			if start >= 0 {
				segments = append(segments, raw[start:offset])
			}
			start = offset
		}
		offset = next
	}
	if start >= 0 {
		segments = append(segments, raw[start:])
	} else if len(raw) > 0 {
		segments = append(segments, raw)
	}
	return segments
}

func parseFileSegment(segment []byte) (*DiffFile, error) {
	file := &DiffFile{
		Operation: OperationModify,
		Ops:       map[FileNodeOp]string{},
		rawDiff:   segment,
	}

	lines := strings.Split(string(segment), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "diff --git ") {
		oldName, newName := parseGitHeaderNames(lines[0])
		file.OldFilename = oldName
		file.Filename = newName
	}

	var chunk *DiffChunk
	oldLine, newLine := 0, 0
	chmodOld, chmodNew := "", ""

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		switch {
		case chunk == nil && strings.HasPrefix(line, "new file mode "):
			file.Operation = OperationAdd
			file.Ops[OpNewFile] = strings.TrimPrefix(line, "new file mode ")
		case chunk == nil && strings.HasPrefix(line, "deleted file mode "):
			file.Operation = OperationDelete
			file.Ops[OpDelFile] = strings.TrimPrefix(line, "deleted file mode ")
		case chunk == nil && strings.HasPrefix(line, "old mode "):
			chmodOld = strings.TrimPrefix(line, "old mode ")
		case chunk == nil && strings.HasPrefix(line, "new mode "):
			chmodNew = strings.TrimPrefix(line, "new mode ")
		case chunk == nil && strings.HasPrefix(line, "rename from "):
			file.OldFilename = strings.TrimPrefix(line, "rename from ")
		case chunk == nil && strings.HasPrefix(line, "rename to "):
			file.Filename = strings.TrimPrefix(line, "rename to ")
			file.Ops[OpRenamedFile] = fmt.Sprintf("%s -> %s", file.OldFilename, file.Filename)
		case chunk == nil && strings.HasPrefix(line, "copy from "):
			file.OldFilename = strings.TrimPrefix(line, "copy from ")
		case chunk == nil && strings.HasPrefix(line, "copy to "):
			file.Filename = strings.TrimPrefix(line, "copy to ")
			file.Ops[OpCopiedFile] = fmt.Sprintf("%s -> %s", file.OldFilename, file.Filename)
		case chunk == nil && (strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch")):
			markBinary(file)
		case strings.HasPrefix(line, "@@ "):
			chunk = parseChunkHeader(line)
			if chunk == nil {
				return nil, fmt.Errorf("malformed hunk header: %q", line)
			}
			oldLine, newLine = chunk.OldStart, chunk.NewStart
			file.Chunks = append(file.Chunks, chunk)
		case chunk != nil && strings.HasPrefix(line, "+"):
			chunk.Lines = append(chunk.Lines, &DiffLine{Type: DiffLineAdd, Content: line[1:], NewLine: newLine})
			newLine++
			file.Stats.Added++
		case chunk != nil && strings.HasPrefix(line, "-"):
			chunk.Lines = append(chunk.Lines, &DiffLine{Type: DiffLineDel, Content: line[1:], OldLine: oldLine})
			oldLine++
			file.Stats.Deleted++
		case chunk != nil && strings.HasPrefix(line, `\`):
			// marker line, not content: flag the previous line
			if n := len(chunk.Lines); n > 0 {
				chunk.Lines[n-1].NoNewlineEOF = true
			}
		case chunk != nil && strings.HasPrefix(line, " "):
			chunk.Lines = append(chunk.Lines, &DiffLine{Type: DiffLineContext, Content: line[1:], OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
		}
	}

	if chmodOld != "" && chmodNew != "" {
		file.Ops[OpChmodFile] = fmt.Sprintf("%s -> %s", chmodOld, chmodNew)
	}
	if file.Operation == OperationModify && !file.Stats.Binary {
		if _, renamed := file.Ops[OpRenamedFile]; !renamed {
			if _, copied := file.Ops[OpCopiedFile]; !copied && len(file.Chunks) > 0 {
				file.Ops[OpModFile] = ""
			}
		}
	}
	return file, nil
}

// markBinary resets the counts and attaches the single synthetic hunk.
func markBinary(file *DiffFile) {
	file.Stats.Binary = true
	file.Stats.Added = 0
	file.Stats.Deleted = 0
	file.Ops[OpBinFile] = ""
	file.Chunks = []*DiffChunk{{
		Header: binaryHunkText,
		Lines:  []*DiffLine{{Type: DiffLineContext, Content: binaryHunkText}},
	}}
}

// parseGitHeaderNames extracts old and new names from a "diff --git" line,
// handling quoted names with embedded control bytes.
func parseGitHeaderNames(header string) (oldName, newName string) {
	rest := strings.TrimPrefix(header, "diff --git ")
	var parts []string
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if rest[0] == '"' {
			unquoted, tail, err := unquotePrefix(rest)
			if err != nil {
				parts = append(parts, rest)
				break
			}
			parts = append(parts, unquoted)
			rest = tail
		} else {
			idx := strings.IndexByte(rest, ' ')
			if idx < 0 {
				parts = append(parts, rest)
				break
			}
			parts = append(parts, rest[:idx])
			rest = rest[idx:]
		}
	}
	if len(parts) >= 2 {
		oldName = strings.TrimPrefix(parts[0], "a/")
		newName = strings.TrimPrefix(parts[len(parts)-1], "b/")
	}
	return oldName, newName
}

// unquotePrefix unquotes a leading C-style quoted string and returns the
// remainder of the input.
func unquotePrefix(s string) (string, string, error) {
	for i := 1; i < len(s); i++ {
		if s[i] == '"' && s[i-1] != '\\' {
			unquoted, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", "", err
			}
			return unquoted, s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated quoted filename: %q", s)
}

// parseChunkHeader parses "@@ -l[,c] +l[,c] @@ section".
func parseChunkHeader(line string) *DiffChunk {
	end := strings.Index(line[3:], " @@")
	if end < 0 {
		return nil
	}
	ranges := strings.Fields(line[3 : 3+end])
	if len(ranges) != 2 {
		return nil
	}
	oldStart, oldCount, ok1 := parseRange(strings.TrimPrefix(ranges[0], "-"))
	newStart, newCount, ok2 := parseRange(strings.TrimPrefix(ranges[1], "+"))
	if !ok1 || !ok2 {
		return nil
	}
	return &DiffChunk{
		Header:   line,
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
	}
}

func parseRange(s string) (start, count int, ok bool) {
	count = 1
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		c, err := strconv.Atoi(s[idx+1:])
		if err != nil {
			return 0, 0, false
		}
		count = c
		s = s[:idx]
	}
	start, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	return start, count, true
}
