package artifact

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/pmezard/go-difflib/difflib"
)

// WriteFile atomically replaces path with data: the bytes go to a temp file
// in the same directory which is then renamed over path. The directory is
// created when missing. A failed write leaves no partial file behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapKind(err, errors.ErrPersistence, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return errors.WrapKind(err, errors.ErrPersistence, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return errors.WrapKind(err, errors.ErrPersistence, "write %s", path)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return errors.WrapKind(err, errors.ErrPersistence, "close temp file for %s", path)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // artifacts are published files
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return errors.WrapKind(err, errors.ErrPersistence, "chmod %s", path)
	}

	if err := os.Rename(tmpName, path); err != nil { //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return errors.WrapKind(err, errors.ErrPersistence, "rename into %s", path)
	}

	return nil
}

// logChange logs a unified diff at debug level when path already holds
// different content.
func logChange(path string, next []byte) {
	prev, err := os.ReadFile(path) //nolint:gosec // path is inside the outputs directory
	if err != nil || bytes.Equal(prev, next) {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(prev)),
		B:        difflib.SplitLines(string(next)),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return
	}

	logger.Debugw("overwriting artifact", "path", path, "diff", diff)
}
