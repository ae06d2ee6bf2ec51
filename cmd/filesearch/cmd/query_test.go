package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCmd_FindsIndexedFile(t *testing.T) {
	skipPreflight = true
	rootFlag = "."
	defer func() { skipPreflight = false }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipt.pdf"), []byte("x"), 0644))

	idx := newIndexCmd()
	idx.SetOut(&bytes.Buffer{})
	idx.SetArgs([]string{dir})
	require.NoError(t, idx.Execute())

	oldRoot := rootFlag
	rootFlag = dir
	defer func() { rootFlag = oldRoot }()

	q := newQueryCmd()
	buf := &bytes.Buffer{}
	q.SetOut(buf)
	q.SetArgs([]string{"receipt"})
	require.NoError(t, q.Execute())

	assert.Contains(t, buf.String(), "receipt.pdf")
}

func TestQueryCmd_NoMatches(t *testing.T) {
	skipPreflight = true
	defer func() { skipPreflight = false }()

	dir := t.TempDir()
	idx := newIndexCmd()
	idx.SetOut(&bytes.Buffer{})
	idx.SetArgs([]string{dir})
	require.NoError(t, idx.Execute())

	oldRoot := rootFlag
	rootFlag = dir
	defer func() { rootFlag = oldRoot }()

	q := newQueryCmd()
	buf := &bytes.Buffer{}
	q.SetOut(buf)
	q.SetArgs([]string{"nonexistent-zzz"})
	require.NoError(t, q.Execute())

	assert.Contains(t, buf.String(), "no matches")
}
