package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDownloadPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "renamed.bin")

	tests := []struct {
		name        string
		dest        string
		downloadDir string
		remote      string
		want        string
	}{
		{"existing directory", dir, "", "a.txt", filepath.Join(dir, "a.txt")},
		{"trailing separator", filepath.Join(dir, "new") + "/", "", "a.txt", filepath.Join(dir, "new", "a.txt")},
		{"explicit file", target, "", "a.txt", target},
		{"download dir", "", dir, "nested/a.txt", filepath.Join(dir, "a.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDownloadPath(tt.dest, tt.downloadDir, tt.remote))
		})
	}
}

func TestResolveDownloadPathFallsBack(t *testing.T) {
	got := ResolveDownloadPath("", "", "a.txt")
	assert.Equal(t, "a.txt", filepath.Base(got))
	assert.Equal(t, DefaultDownloadDir(), filepath.Dir(got))
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	assert.True(t, FileExists(file))
	assert.False(t, IsDirectory(file))
	assert.True(t, IsDirectory(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, EnsureDirectory(nested))
	assert.True(t, IsDirectory(nested))
	assert.NotEmpty(t, ExecutableDir())
}
