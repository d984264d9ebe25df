package model

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Inspect applies the skip rules to a candidate path: it must exist, be a
// directory, and contain at least one entry.
func Inspect(path string) (SkipReason, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SkipMissing, nil
		}
		return SkipUnreadable, err
	}
	if !info.IsDir() {
		return SkipFile, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return SkipUnreadable, err
	}
	defer f.Close()

	// One entry is enough to know the directory is not empty.
	names, err := f.Readdirnames(1)
	if len(names) == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return SkipUnreadable, err
		}
		return SkipEmpty, nil
	}
	return SkipNone, nil
}

// SkipMessage is the console line printed for a skipped path.
func SkipMessage(path string, reason SkipReason) string {
	switch reason {
	case SkipMissing:
		return "Path " + path + " does not exist. Skipping."
	case SkipFile:
		return "Path " + path + " is a file, not a directory. Skipping."
	case SkipEmpty:
		return "Path " + path + " is an empty directory. Skipping."
	}
	return "Path " + path + " could not be read. Skipping."
}
