package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// Collision suffix separators: base + sep + N + ext.
const (
	SepDot        = "."
	SepUnderscore = "_"
)

// maxSuffix bounds the search for a free name.
const maxSuffix = 10000

// LockName is the lock file a batch holds in the directory it renames.
const LockName = ".clipmatch.lock"

// ErrLocked is returned when another batch is renaming the same directory.
var ErrLocked = errors.New("directory is locked by another rename batch")

// UniquePath returns path if nothing exists there, otherwise the first
// base+sep+N+ext (N from 1) that is free.
func UniquePath(path, sep string) (string, error) {
	free, err := isFree(path)
	if err != nil || free {
		return path, err
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; n <= maxSuffix; n++ {
		candidate := base + sep + strconv.Itoa(n) + ext
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", path, maxSuffix)
}

// SafeRename moves oldPath to newPath, or to the UniquePath of newPath when
// something already exists there. It returns the final path.
func SafeRename(oldPath, newPath, sep string) (string, error) {
	if oldPath == newPath {
		return newPath, nil
	}
	final, err := UniquePath(newPath, sep)
	if err != nil {
		return "", err
	}
	if err := os.Rename(oldPath, final); err != nil {
		return "", err
	}
	return final, nil
}

// lockDir takes the batch lock of dir without waiting.
func lockDir(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}
	return lock, nil
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}
