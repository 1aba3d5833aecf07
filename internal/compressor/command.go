package compressor

import (
	"context"
	"io/fs"
	"os/exec"
	"time"

	"optimage/internal/fileutil"
	"optimage/internal/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Command is a Compressor backed by an external program.
type Command struct {
	// ToolName is the stable compressor name, independent of Binary.
	ToolName string
	// Binary is the executable to run, either a name looked up in PATH or
	// a path.
	Binary string
	// Args builds the argument list for the given input and output paths.
	Args func(input, output string) []string
	// InPlace marks tools that overwrite their input instead of writing a
	// separate output. The input is copied to the output path first and
	// the tool is run against the copy.
	InPlace bool
	// Logger receives debug output; nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// Name returns the compressor name.
func (c *Command) Name() string {
	return c.ToolName
}

// Compress runs the external program.
func (c *Command) Compress(ctx context.Context, input, output string) error {
	src := input
	if c.InPlace {
		if err := fileutil.CopyFile(input, output); err != nil {
			return errors.Wrapf(err, "%s: prepare output", c.ToolName)
		}
		src = output
	}
	args := c.Args(src, output)

	log := logger.WithOperation(c.logger(), "compress").WithField("compressor", c.ToolName)
	log.Debugf("compress: run %s %v", c.Binary, args)

	out, err := Run(ctx, c.Binary, args...)
	if len(out) > 0 {
		log.Debugf("%s", out)
	}
	return err
}

func (c *Command) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

// WaitDelay bounds how long Run waits for the output pipes to close after
// the context is done, in case the tool left children holding them.
var WaitDelay = 5 * time.Second

// Run executes binary with args and returns its combined stdout and stderr.
// A binary that cannot be started yields a *MissingBinaryError, a non-zero
// exit status a *CommandError.
func Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = WaitDelay
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr := &CommandError{
			Args:     append([]string{binary}, args...),
			ExitCode: exitErr.ExitCode(),
			Output:   out,
			Err:      err,
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cerr.Err = ctxErr
		}
		return out, cerr
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, &MissingBinaryError{Binary: binary, Err: err}
	}
	return out, errors.Wrapf(err, "run %s", binary)
}
