// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package gitdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleDiff = `diff --git a/main.go b/main.go
index 1234567..89abcde 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
-func old() {}
+func new() {}
+func extra() {}
`

func TestParseSimpleDiff(t *testing.T) {
	ds, err := ParseDiff([]byte(simpleDiff), Limits{})
	require.NoError(t, err)
	require.Len(t, ds.Files, 1)

	f := ds.Files[0]
	assert.Equal(t, "main.go", f.Filename)
	assert.Equal(t, OperationModify, f.Operation)
	assert.Equal(t, 2, f.Stats.Added)
	assert.Equal(t, 1, f.Stats.Deleted)
	assert.Contains(t, f.Ops, OpModFile)
	require.Len(t, f.Chunks, 1)
	assert.Equal(t, 1, f.Chunks[0].OldStart)
	assert.Equal(t, 4, f.Chunks[0].NewCount)
}

func TestParseAsRawRoundTrip(t *testing.T) {
	raw := simpleDiff + `diff --git a/other.go b/other.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/other.go
@@ -0,0 +1 @@
+package other
`
	ds, err := ParseDiff([]byte(raw), Limits{})
	require.NoError(t, err)
	require.Len(t, ds.Files, 2)
	assert.Equal(t, raw, string(ds.AsRaw()))
	assert.Equal(t, OperationAdd, ds.Files[1].Operation)
	assert.Contains(t, ds.Files[1].Ops, OpNewFile)
}

func TestParseBinaryFile(t *testing.T) {
	raw := `diff --git a/logo.png b/logo.png
index 1234567..89abcde 100644
Binary files a/logo.png and b/logo.png differ
`
	ds, err := ParseDiff([]byte(raw), Limits{})
	require.NoError(t, err)
	require.Len(t, ds.Files, 1)

	f := ds.Files[0]
	assert.True(t, f.Stats.Binary)
	assert.Zero(t, f.Stats.Added)
	assert.Zero(t, f.Stats.Deleted)
	assert.Contains(t, f.Ops, OpBinFile)
	require.Len(t, f.Chunks, 1)
	assert.Equal(t, "binary diff hidden", f.Chunks[0].Lines[0].Content)
}

func TestParseRenameAndChmod(t *testing.T) {
	raw := `diff --git a/old
name.go b/newname.go
old mode 100644
new mode 100755
rename from oldname.go
rename to newname.go
`
	// rename with chmod, no hunks
	raw = strings.Replace(raw, "a/old\nname.go", "a/oldname.go", 1)
	ds, err := ParseDiff([]byte(raw), Limits{})
	require.NoError(t, err)
	require.Len(t, ds.Files, 1)

	f := ds.Files[0]
	assert.Equal(t, "newname.go", f.Filename)
	assert.Equal(t, "oldname.go", f.OldFilename)
	assert.Contains(t, f.Ops, OpRenamedFile)
	assert.Contains(t, f.Ops, OpChmodFile)
	assert.Equal(t, "100644 -> 100755", f.Ops[OpChmodFile])
}

func TestParseQuotedFilename(t *testing.T) {
	raw := "diff --git \"a/we\\nird.txt\" \"b/we\\nird.txt\"\n" +
		"index 1234567..89abcde 100644\n"
	ds, err := ParseDiff([]byte(raw), Limits{})
	require.NoError(t, err)
	require.Len(t, ds.Files, 1)

	// raw bytes preserved, escaped for display
	assert.Equal(t, "we\nird.txt", ds.Files[0].Filename)
	assert.Equal(t, `"we\nird.txt"`, ds.Files[0].DisplayName())
}

func TestParseNoNewlineMarker(t *testing.T) {
	raw := `diff --git a/a.txt b/a.txt
index 1234567..89abcde 100644
--- a/a.txt
+++ b/a.txt
@@ -1 +1 @@
-old
+new
\ No newline at end of file
`
	ds, err := ParseDiff([]byte(raw), Limits{})
	require.NoError(t, err)
	f := ds.Files[0]

	// the marker is not counted as a line
	assert.Equal(t, 1, f.Stats.Added)
	assert.Equal(t, 1, f.Stats.Deleted)
	lines := f.Chunks[0].Lines
	require.Len(t, lines, 2)
	assert.False(t, lines[0].NoNewlineEOF)
	assert.True(t, lines[1].NoNewlineEOF)
}

func TestDiffOverBudget(t *testing.T) {
	var big strings.Builder
	big.WriteString("diff --git a/example.go b/example.go\nindex 1..2 100644\n--- a/example.go\n+++ b/example.go\n@@ -0,0 +1,10000 @@\n")
	for i := 0; i < 10000; i++ {
		big.WriteString("+var x = 1\n")
	}
	small := "diff --git a/README.md b/README.md\nindex 3..4 100644\n--- a/README.md\n+++ b/README.md\n@@ -0,0 +1,5 @@\n+a\n+b\n+c\n+d\n+e\n"

	ds, err := ParseDiff([]byte(big.String()+small), Limits{DiffLimit: 1024, FileLimit: 1024})
	require.NoError(t, err)
	require.Len(t, ds.Files, 2)

	assert.True(t, ds.LimitedDiff)
	assert.Equal(t, "example.go", ds.Files[0].Filename)
	assert.True(t, ds.Files[0].LimitedDiff)
	assert.Empty(t, ds.Files[0].Chunks)
	// the oversized file does not eat the budget of the small one
	assert.Equal(t, "README.md", ds.Files[1].Filename)
	assert.False(t, ds.Files[1].LimitedDiff)
	assert.NotEmpty(t, ds.Files[1].Chunks)
}

func TestDiffBudgetSticky(t *testing.T) {
	var big strings.Builder
	big.WriteString("diff --git a/example.go b/example.go\nindex 1..2 100644\n--- a/example.go\n+++ b/example.go\n@@ -0,0 +1,150 @@\n")
	for i := 0; i < 150; i++ {
		big.WriteString("+var x = 1\n")
	}
	small := "diff --git a/README.md b/README.md\nindex 3..4 100644\n--- a/README.md\n+++ b/README.md\n@@ -0,0 +1,1 @@\n+a\n"

	// no per-file limit: the first file trips the cumulative budget and
	// every file after it must be limited as well
	ds, err := ParseDiff([]byte(big.String()+small), Limits{DiffLimit: 1000})
	require.NoError(t, err)
	require.Len(t, ds.Files, 2)

	assert.True(t, ds.LimitedDiff)
	assert.True(t, ds.Files[0].LimitedDiff)
	assert.True(t, ds.Files[1].LimitedDiff)
	assert.Empty(t, ds.Files[1].Chunks)
}

func TestFileLimitOnly(t *testing.T) {
	var big strings.Builder
	big.WriteString("diff --git a/example.go b/example.go\nindex 1..2 100644\n--- a/example.go\n+++ b/example.go\n@@ -0,0 +1,100 @@\n")
	for i := 0; i < 100; i++ {
		big.WriteString("+var x = 1\n")
	}
	small := "diff --git a/README.md b/README.md\nindex 3..4 100644\n--- a/README.md\n+++ b/README.md\n@@ -0,0 +1,1 @@\n+a\n"

	ds, err := ParseDiff([]byte(big.String()+small), Limits{DiffLimit: 1 << 20, FileLimit: 256})
	require.NoError(t, err)
	assert.True(t, ds.Files[0].LimitedDiff)
	assert.False(t, ds.Files[1].LimitedDiff)
	assert.False(t, ds.Files[1].Stats.Binary)
	assert.NotEmpty(t, ds.Files[1].Chunks)
}
