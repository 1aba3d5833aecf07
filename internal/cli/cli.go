// Package cli implements the optimage command line: it validates the input
// file, runs the compressors for its format and reports or applies the
// result.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"optimage/internal/compressor"
	"optimage/internal/config"
	"optimage/internal/fileutil"
	"optimage/internal/logger"
	"optimage/internal/optimizer"
	"optimage/internal/statistics"
	"optimage/internal/tempfile"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Exit codes of the optimage command.
const (
	ExitOK               = 0
	ExitCanCompress      = 1
	ExitUsage            = 2
	ExitNotAFile         = 3
	ExitUnsupported      = 4
	ExitInvalidExtension = 5
	ExitMissingBinary    = 6
	ExitCommandFailed    = 7
	ExitInternal         = 8
)

// usageError marks errors caused by invalid arguments or flags.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	code   int
}

// Execute runs optimage with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		v:      config.NewViper(),
		stdout: stdout,
		stderr: stderr,
	}
	cmd := a.rootCommand()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return ExitUsage
	}
	return a.code
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimage [--replace] [--output PATH] FILENAME",
		Short: "Losslessly compress JPEG and PNG files",
		Long: `optimage runs several lossless compressors on a JPEG or PNG image and
keeps the smallest result that decodes to exactly the same pixels.

PNG files are processed with pngcrush, optipng and zopflipng; JPEG files with
jpegtran and jpegoptim. Without --replace or --output the command only
reports the possible savings.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{errors.Errorf("requires exactly one FILENAME argument, received %d", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.code = a.run(cmd.Context(), args[0])
			return nil
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.Bool("replace", false, "replace the input file in case we can compress it")
	flags.String("output", "", "write the compressed file to `PATH` instead")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("parallel", false, "run the compressors concurrently")
	flags.Duration("timeout", 0, "abort when the compressors take longer than this (0 disables)")
	_ = flags.MarkHidden("debug")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(f.Name, f)
	})

	return cmd
}

// run executes one invocation and returns its exit code.
func (a *app) run(ctx context.Context, filename string) int {
	cfg, err := config.Load(a.v)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitUsage
	}

	log, err := a.setupLogger(cfg)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitUsage
	}

	if !fileutil.IsRegular(filename) {
		fmt.Fprintf(a.stderr, "%s is not an image file\n", filename)
		return ExitNotAFile
	}

	selector := optimizer.NewSelector(log)
	selector.TempDir = cfg.TempDir
	selector.Parallel = cfg.Parallel
	selector.Timeout = cfg.Timeout
	dispatcher := optimizer.NewDispatcher(optimizer.DefaultProfiles(cfg.Binary, log), selector, log)

	extension := strings.ToLower(extensionOf(filename))
	format, ok := dispatcher.FormatForExtension(extension)
	if !ok {
		fmt.Fprintf(a.stderr, "No lossless compressor defined for extension \"%s\"\n", extension)
		return ExitUnsupported
	}

	set, err := tempfile.Reserve(cfg.TempDir, tempfile.DefaultPrefix, 1)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitInternal
	}
	defer set.Release()
	compressed := set.Path(0)

	summary := statistics.NewSummary(filename)
	res, err := dispatcher.Compress(ctx, format, filename, compressed)
	if err != nil {
		return a.reportError(err, filename, extension)
	}

	newSize, err := fileutil.Size(compressed)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitInternal
	}
	summary.Winner = res.Winner
	summary.Candidates = res.Candidates
	summary.Finalize(res.OriginalSize, newSize)
	log.Debug(summary.Detail())

	if !summary.Improved() {
		return ExitOK
	}

	if cfg.Replace || cfg.Output != "" {
		dst := filename
		if !cfg.Replace {
			dst = cfg.Output
		}
		if err := writeResult(compressed, filename, dst); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return ExitInternal
		}

		fmt.Fprintf(a.stdout, "File was losslessly compressed to %d bytes (%s)\n",
			newSize, summary.SavingsString())
		return ExitOK
	}

	fmt.Fprintf(a.stdout, "File can be losslessly compressed to %d bytes (%s)\n",
		newSize, summary.SavingsString())
	fmt.Fprintln(a.stdout, "Replace it by running either:")
	fmt.Fprintf(a.stdout, "  optimage --replace %s\n", filename)
	fmt.Fprintf(a.stdout, "  optimage --output <FILENAME> %s\n", filename)
	return ExitCanCompress
}

// extensionOf returns the extension of filename. Leading dots of the base
// name are ignored, so a dotfile like ".png" has none.
func extensionOf(filename string) string {
	base := strings.TrimLeft(filepath.Base(filename), ".")
	return filepath.Ext(base)
}

// reportError prints the message matching err and returns its exit code.
func (a *app) reportError(err error, filename, extension string) int {
	var (
		invalid *optimizer.InvalidExtensionError
		missing *compressor.MissingBinaryError
		failed  *compressor.CommandError
	)

	switch {
	case errors.As(err, &invalid):
		fmt.Fprintf(a.stderr, "%s is not a \"%s\" file. Please correct the extension\n", filename, extension)
		return ExitInvalidExtension
	case errors.As(err, &missing):
		fmt.Fprintf(a.stderr, "The executable \"%s\" was not found. Please install it and re-run this command.\n", missing.Binary)
		return ExitMissingBinary
	case errors.As(err, &failed):
		fmt.Fprintf(a.stderr, "Error when running the command:\n  %s\n", failed.CommandLine())
		fmt.Fprintf(a.stderr, "Status: %d\n", failed.ExitCode)
		fmt.Fprintln(a.stderr, "Output:")
		fmt.Fprint(a.stderr, string(failed.Output))
		return ExitCommandFailed
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitInternal
	}
}

// writeResult replaces dst with the compressed file, keeping the
// permission bits of the original image.
func writeResult(compressed, original, dst string) error {
	info, err := os.Stat(original)
	if err != nil {
		return errors.Wrap(err, "stat original")
	}
	return fileutil.ReplaceFile(compressed, dst, info.Mode().Perm())
}

// setupLogger configures and returns a logger writing to stderr.
func (a *app) setupLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logger.NewLogger(logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    a.stderr,
	})
}
