package compressor

import (
	"fmt"
	"strings"
)

// MissingBinaryError is returned when an external compressor could not be
// located or launched.
type MissingBinaryError struct {
	Binary string
	Err    error
}

func (e *MissingBinaryError) Error() string {
	return fmt.Sprintf("executable %q not found: %v", e.Binary, e.Err)
}

func (e *MissingBinaryError) Unwrap() error {
	return e.Err
}

// CommandError is returned when an external compressor ran but exited with
// a non-zero status.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   []byte
	Err      error
}

// CommandLine returns the command as it would be typed in a shell.
func (e *CommandError) CommandLine() string {
	return strings.Join(e.Args, " ")
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.CommandLine(), e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
