package ioutils

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/goerr/v2"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// ArchiveStudy bundles the completed study tree under root into a single
// zip at root/<studyID>.zip and returns the archive path. Entry names are
// prefixed with the study id so the archive unpacks into one directory.
// The zip is staged and renamed like any other output file.
func ArchiveStudy(root, studyID string) (string, error) {
	srcDir := filepath.Join(root, studyID)
	if _, err := os.Stat(srcDir); err != nil {
		return "", goerr.Wrap(err, "study tree not found",
			goerr.V("dir", srcDir), goerr.T(model.TagIO))
	}

	dest := filepath.Join(root, studyID+".zip")

	tmp, err := os.CreateTemp(root, studyID+".zip.partial-*")
	if err != nil {
		return "", goerr.Wrap(err, "create staging archive", goerr.T(model.TagIO))
	}
	tmpName := tmp.Name()

	fail := func(err error, msg string) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", goerr.Wrap(err, msg, goerr.V("dir", srcDir), goerr.T(model.TagIO))
	}

	zw := zip.NewWriter(tmp)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(filepath.Join(studyID, rel)))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return fail(walkErr, "add files to archive")
	}

	if err := zw.Close(); err != nil {
		return fail(err, "finalize archive")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", goerr.Wrap(err, "close staging archive", goerr.T(model.TagIO))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", goerr.Wrap(err, "move archive into place",
			goerr.V("path", dest), goerr.T(model.TagIO))
	}

	return dest, nil
}
