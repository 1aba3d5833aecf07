// Package optimizer runs a chain of lossless compressors against an image
// and keeps the smallest output that still decodes to the same pixels.
package optimizer

import (
	"context"
	"time"

	"optimage/internal/compressor"
	"optimage/internal/fileutil"
	"optimage/internal/imagecmp"
	"optimage/internal/logger"
	"optimage/internal/tempfile"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// NoWinner is logged when the output is a copy of the input.
const NoWinner = "none"

// VerifyFunc reports whether two image files hold the same pixels.
type VerifyFunc func(path1, path2 string) (bool, error)

// Result is the outcome of a selection pass.
type Result struct {
	// Winner names the compressor whose output was kept, or is empty when
	// the input was copied unchanged.
	Winner       string
	OriginalSize int64
	Size         int64
	// Candidates holds one entry per compressor, in chain order.
	Candidates []compressor.Result
}

// Improved reports whether the output is smaller than the input.
func (r *Result) Improved() bool {
	return r.Winner != ""
}

// Selector picks the best output among several compressors.
type Selector struct {
	// TempDir holds the per-compressor outputs; empty means os.TempDir.
	TempDir string
	// Parallel runs the compressors concurrently.
	Parallel bool
	// Timeout bounds a whole pass; zero means no limit.
	Timeout time.Duration
	// Verify checks candidate outputs; nil uses imagecmp.Equal.
	Verify VerifyFunc
	Logger logrus.FieldLogger
}

// NewSelector returns a sequential Selector without timeout.
func NewSelector(log logrus.FieldLogger) *Selector {
	return &Selector{
		Verify: imagecmp.Equal,
		Logger: log,
	}
}

// SelectBest compresses input with every compressor of chain and writes the
// smallest pixel-equivalent result to output. When no compressor produces a
// strictly smaller valid image, output becomes a copy of input. Any
// compressor failure aborts the pass. Temporary outputs are always removed.
func (s *Selector) SelectBest(ctx context.Context, input, output string, chain []compressor.Compressor) (*Result, error) {
	if len(chain) == 0 {
		return nil, errors.New("empty compressor chain")
	}
	log := logger.WithFileOperation(s.logger(), input, "select")

	originalSize, err := fileutil.Size(input)
	if err != nil {
		return nil, errors.Wrapf(err, "input %s", input)
	}

	set, err := tempfile.Reserve(s.TempDir, tempfile.DefaultPrefix, len(chain))
	if err != nil {
		return nil, err
	}
	defer set.Release()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	results, err := s.runAll(ctx, input, set.Paths(), chain)
	if err != nil {
		return nil, err
	}

	res := &Result{
		OriginalSize: originalSize,
		Size:         originalSize,
		Candidates:   results,
	}

	best := results[compressor.Best(results)]
	winner := best.Compressor
	if best.Size >= originalSize {
		winner = ""
	}

	if winner != "" {
		ok, err := s.verify(input, best.Path)
		if err != nil {
			log.WithError(err).Infof("Compressor %q generated an unreadable image", winner)
			winner = ""
		} else if !ok {
			log.Infof("Compressor %q generated an invalid image", winner)
			winner = ""
		}
	}

	if winner == "" {
		if err := fileutil.CopyFile(input, output); err != nil {
			return nil, errors.Wrap(err, "copy original")
		}
	} else {
		if err := fileutil.MoveFile(best.Path, output); err != nil {
			return nil, errors.Wrap(err, "move best result")
		}
		res.Winner = winner
		res.Size = best.Size
	}

	name := res.Winner
	if name == "" {
		name = NoWinner
	}
	log.Infof("%s: best compressor", name)

	return res, nil
}

// runAll runs chain[i] into outputs[i] and returns the results in chain
// order. The first failure is returned.
func (s *Selector) runAll(ctx context.Context, input string, outputs []string, chain []compressor.Compressor) ([]compressor.Result, error) {
	results := make([]compressor.Result, len(chain))

	if !s.Parallel {
		for i, c := range chain {
			r, err := s.runOne(ctx, c, input, outputs[i])
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	p := pool.New().
		WithMaxGoroutines(len(chain)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i, c := range chain {
		i, c := i, c
		p.Go(func(ctx context.Context) error {
			r, err := s.runOne(ctx, c, input, outputs[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Selector) runOne(ctx context.Context, c compressor.Compressor, input, output string) (compressor.Result, error) {
	start := time.Now()
	if err := c.Compress(ctx, input, output); err != nil {
		return compressor.Result{}, err
	}

	size, err := fileutil.Size(output)
	if err != nil {
		return compressor.Result{}, errors.Wrapf(err, "%s produced no output", c.Name())
	}

	r := compressor.Result{
		Compressor: c.Name(),
		Path:       output,
		Size:       size,
		Duration:   time.Since(start),
	}
	logger.WithFile(s.logger(), input).WithFields(logrus.Fields{
		"compressor": r.Compressor,
		"size":       r.Size,
		"duration":   r.Duration,
	}).Debug("compressor finished")
	return r, nil
}

func (s *Selector) verify(path1, path2 string) (bool, error) {
	if s.Verify != nil {
		return s.Verify(path1, path2)
	}
	return imagecmp.Equal(path1, path2)
}

func (s *Selector) logger() logrus.FieldLogger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}
