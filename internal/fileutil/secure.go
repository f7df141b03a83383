// Package fileutil writes export output with owner-only permissions.
// Message transcripts are private, so files are never briefly visible with
// looser modes or as partial writes.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// SecureWriteFile writes data to path through a temporary file in the same
// directory and renames it into place, so readers never observe a partial
// file. The final file has exactly perm, regardless of umask.
func SecureWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// SecureMkdirAll creates path and any missing parents, then sets path itself
// to exactly perm. Existing parents are left untouched.
func SecureMkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}
