package compressor

import (
	"context"
	"time"
)

// Compressor losslessly recompresses the image at input into output.
type Compressor interface {
	// Name identifies the compressor in logs and error messages.
	Name() string
	// Compress writes the recompressed image to output. The input file
	// must not be modified.
	Compress(ctx context.Context, input, output string) error
}

// Result describes the output of a single compressor invocation.
type Result struct {
	Compressor string
	Path       string
	Size       int64
	Duration   time.Duration
}

// Best returns the index of the smallest result. Ties go to the earliest
// entry. It returns -1 for an empty slice.
func Best(results []Result) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Size < results[best].Size {
			best = i
		}
	}
	return best
}
