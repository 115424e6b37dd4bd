package mkv

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external tool and returns its combined output.
// Injected in tests to avoid spawning real processes.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// DefaultCommandRunner executes commands with exec.CommandContext and treats
// any non-zero exit as failure. mkvmerge uses exit code 1 for warnings; this
// tool mutates user media, so warnings are not tolerated either.
func DefaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%w: %s: %v: %s", ErrExternalTool, name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
