package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	root := t.TempDir()

	full := filepath.Join(root, "full")
	require.NoError(t, os.Mkdir(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "a.dat"), []byte("x"), 0o644))

	empty := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	file := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
		want SkipReason
	}{
		{"directory with content", full, SkipNone},
		{"empty directory", empty, SkipEmpty},
		{"regular file", file, SkipFile},
		{"missing", filepath.Join(root, "nope"), SkipMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inspect(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSkipMessage(t *testing.T) {
	assert.Equal(t, "Path /x does not exist. Skipping.", SkipMessage("/x", SkipMissing))
	assert.Equal(t, "Path /x is a file, not a directory. Skipping.", SkipMessage("/x", SkipFile))
	assert.Equal(t, "Path /x is an empty directory. Skipping.", SkipMessage("/x", SkipEmpty))
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/data", ExpandHome("~/data"))
	assert.Equal(t, "/home/tester", ExpandHome("~"))
	assert.Equal(t, "/srv/~x", ExpandHome("/srv/~x"))
}
