package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandError reports a failed external converter run.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("converter %s failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + truncate(strings.TrimSpace(e.Stderr), 300)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Command runs an external program as `<Path> <Args...> <input.pdf> <output>`
// and reads the output file back. A non-zero exit or a missing output file
// fails the conversion.
type Command struct {
	Path   string
	Args   []string
	Format Format
}

func (c *Command) Name() string { return filepath.Base(c.Path) }

func (c *Command) Convert(ctx context.Context, pdf []byte) (string, error) {
	dir, err := os.MkdirTemp("", "fracture-convert-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "segment.pdf")
	out := filepath.Join(dir, "segment"+c.Format.Ext())
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return "", fmt.Errorf("write converter input: %w", err)
	}

	args := append(append([]string{}, c.Args...), in, out)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cerr := &CommandError{Command: c.Path, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		return "", cerr
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return "", &CommandError{Command: c.Path, Stderr: stderr.String(), Err: fmt.Errorf("no output file: %w", err)}
	}

	if c.Format == FormatHTML {
		return HTMLToMarkdown(bytes.NewReader(data))
	}
	return string(data), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
