package ioutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// WriteFileAtomic writes data to path, creating any missing parent
// directories. The payload is staged to a temporary file in the
// destination directory and renamed into place. A zero-length payload is
// still written so the zero-byte cleanup pass has something to inspect.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "create output directory",
			goerr.V("dir", dir), goerr.T(model.TagIO))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".partial-*")
	if err != nil {
		return goerr.Wrap(err, "create staging file",
			goerr.V("path", path), goerr.T(model.TagIO))
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return goerr.Wrap(err, "write staging file",
			goerr.V("path", path), goerr.T(model.TagIO))
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "close staging file",
			goerr.V("path", path), goerr.T(model.TagIO))
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "move staging file into place",
			goerr.V("path", path), goerr.T(model.TagIO))
	}
	return nil
}

// CleanZeroByteFiles walks root and deletes every regular file with zero
// length, returning the deleted paths in sorted order. Non-empty files and
// directories are never touched; running it twice has the same effect as
// running it once.
func CleanZeroByteFiles(root string) ([]string, error) {
	var deleted []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || info.Size() != 0 {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		deleted = append(deleted, path)
		return nil
	})
	if err != nil {
		return deleted, goerr.Wrap(err, "clean zero-byte files",
			goerr.V("root", root), goerr.T(model.TagIO))
	}

	sort.Strings(deleted)
	return deleted, nil
}

// SanitizeFileName removes or replaces characters that are invalid in
// file/folder names, so participant ids are safe across operating systems.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
func SanitizeFileName(name string) string {
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")
	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")
	name = strings.TrimRight(name, " ")

	return name
}

// EnsureDir creates a directory and all parent directories if they don't
// exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
