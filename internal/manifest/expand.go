package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"elmbackup/internal/model"
)

// Expand returns the paths a row stands for. A plain row is its own path; a
// row with TarChildrenSeparately set stands for every direct child of its path.
// Children are sorted and hidden entries are left out, so that a path index
// means the same thing on every run as long as the directory is unchanged.
func Expand(row model.Row) ([]string, error) {
	base := absolute(row.Path)
	if !row.TarChildrenSeparately {
		return []string{base}, nil
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", base, err)
	}

	var paths []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(base, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func absolute(path string) string {
	if path == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
