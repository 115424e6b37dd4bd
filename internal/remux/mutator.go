package remux

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subforge/internal/fileutil"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

// ErrFileIntegrity indicates a temp output that is missing or empty, a failed
// copy, or a failed swap into the original path.
var ErrFileIntegrity = errors.New("file integrity error")

// Mutator wraps mkvmerge mutations in a mutate-temp, verify, swap sequence.
type Mutator struct {
	logger *slog.Logger
	tool   *mkv.Tool
}

// NewMutator constructs a mutator sharing the given tool's subprocess seam.
func NewMutator(logger *slog.Logger, tool *mkv.Tool) *Mutator {
	return &Mutator{
		logger: logging.NewComponentLogger(logger, "mutator"),
		tool:   tool,
	}
}

// Temp paths use a fixed suffix per operation type. A crashed run's stale
// temp file is simply overwritten on retry, so no cleanup pass is needed.
func removeTempPath(containerPath string) string {
	dir := filepath.Dir(containerPath)
	base := filepath.Base(containerPath)
	return filepath.Join(dir, ".remove-"+base+".tmp")
}

func mergeTempPath(containerPath string) string {
	dir := filepath.Dir(containerPath)
	base := filepath.Base(containerPath)
	return filepath.Join(dir, ".merge-"+base+".tmp")
}

// ensureSpaceFor fails when the filesystem holding path cannot fit another
// copy of it. Statfs errors are logged and ignored so an exotic filesystem
// does not block processing.
func (m *Mutator) ensureSpaceFor(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrFileIntegrity, path, err)
	}
	free, err := fileutil.FreeSpace(filepath.Dir(path))
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("free space check unavailable", logging.Error(err), logging.String(logging.FieldPath, path))
		}
		return nil
	}
	if free < uint64(info.Size()) {
		return fmt.Errorf("%w: need %d bytes free for temp output of %s, have %d", ErrFileIntegrity, info.Size(), path, free)
	}
	return nil
}

// swap moves the verified temp output over the original path.
func (m *Mutator) swap(tmpPath, containerPath string) error {
	if err := fileutil.EnsureNonEmpty(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrFileIntegrity, err)
	}
	if err := os.Rename(tmpPath, containerPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", ErrFileIntegrity, containerPath, err)
	}
	return nil
}
