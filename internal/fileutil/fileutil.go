package fileutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// EnsureNonEmpty fails when path is missing or has zero bytes.
func EnsureNonEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file %s is empty", path)
	}
	return nil
}

// FreeSpace reports the bytes available to unprivileged callers on the
// filesystem containing dir.
func FreeSpace(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
