package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter(t *testing.T) {
	cases := []struct {
		name string
		path string
		mode os.FileMode
	}{
		{name: "markdown", path: "proposal-Mainnet-v16.0.0.md", mode: 0o644},
		{name: "script", path: "proposal-Mainnet-v16.0.0.sh", mode: 0o755},
		{name: "nested", path: "out/proposal-Mainnet-v16.0.0.json", mode: 0o644},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			w := FileWriter{Dir: dir}

			require.NoError(t, w.Write(context.Background(), tc.path, []byte("content")))

			full := filepath.Join(dir, tc.path)
			raw, err := os.ReadFile(full)
			require.NoError(t, err)
			assert.Equal(t, "content", string(raw))

			info, err := os.Stat(full)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, info.Mode().Perm())
		})
	}
}

func TestFileWriterOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proposal.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := FileWriter{Dir: dir}.Write(context.Background(), path, []byte("new"))
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, FileWriter{Dir: dir, Overwrite: true}.Write(context.Background(), path, []byte("new")))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileWriterCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, FileWriter{Dir: dir}.Write(ctx, "proposal.md", []byte("x")), context.Canceled)
	_, err := os.Stat(filepath.Join(dir, "proposal.md"))
	assert.True(t, os.IsNotExist(err))
}
