package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCmd_ReportsIndexedState(t *testing.T) {
	skipPreflight = true
	defer func() { skipPreflight = false }()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))

	idx := newIndexCmd()
	idx.SetOut(&bytes.Buffer{})
	idx.SetArgs([]string{dir})
	require.NoError(t, idx.Execute())

	status := newStatusCmd()
	buf := &bytes.Buffer{}
	status.SetOut(buf)
	status.SetArgs([]string{dir, "--json"})
	require.NoError(t, status.Execute())

	var info statusInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.True(t, info.Indexed)
	assert.Equal(t, int64(1), info.IndexedFiles)
}
