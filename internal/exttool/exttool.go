// Package exttool runs external command-line tools as blocking subprocesses.
package exttool

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/inodb/locusalign/internal/failure"
)

// Run executes name with args and waits for it to exit. Stdout and stderr
// are captured together. A non-zero exit yields *failure.ExternalToolError
// carrying the captured output; there is no retry.
func Run(name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), &failure.ExternalToolError{
				Tool:     filepath.Base(name),
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Output:   out.String(),
			}
		}
		return out.Bytes(), fmt.Errorf("run %s: %w", filepath.Base(name), err)
	}
	return out.Bytes(), nil
}
