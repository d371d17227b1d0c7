package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// commandResult holds what an external program left behind.
type commandResult struct {
	exitCode int
	stdout   []byte
	stderr   []byte
}

func (r *commandResult) success() bool {
	return r.exitCode == 0
}

// diagnostic prefers standard error. Some backends (darktable-cli) print
// their failures on standard output instead.
func (r *commandResult) diagnostic() string {
	if msg := bytes.TrimSpace(r.stderr); len(msg) > 0 {
		return string(msg)
	}
	return string(bytes.TrimSpace(r.stdout))
}

// runCommand runs name with args and waits for it to exit. A non-zero exit
// status is reported through the result; the error is reserved for programs
// that could not be started at all.
func runCommand(ctx context.Context, name string, args ...string) (*commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &commandResult{stdout: stdout.Bytes(), stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", name, err)
		}
		// -1 when the process was killed by a signal.
		res.exitCode = exitErr.ExitCode()
	}
	return res, nil
}
