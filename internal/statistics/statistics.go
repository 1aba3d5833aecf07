package statistics

import (
	"fmt"
	"strings"
	"time"

	"optimage/internal/compressor"
)

// Summary contains the size statistics of a single recompression.
type Summary struct {
	File           string
	OriginalSize   int64
	CompressedSize int64
	Winner         string
	Candidates     []compressor.Result
	StartTime      time.Time
	EndTime        time.Time
}

// NewSummary returns a Summary for file started now.
func NewSummary(file string) *Summary {
	return &Summary{
		File:      file,
		StartTime: time.Now(),
	}
}

// Finalize records the sizes and the end time.
func (s *Summary) Finalize(originalSize, compressedSize int64) {
	s.OriginalSize = originalSize
	s.CompressedSize = compressedSize
	s.EndTime = time.Now()
}

// Improved reports whether the compressed file is smaller than the original.
func (s *Summary) Improved() bool {
	return s.CompressedSize < s.OriginalSize
}

// Savings returns the number of bytes saved.
func (s *Summary) Savings() int64 {
	return s.OriginalSize - s.CompressedSize
}

// SavingsPercentage returns the saved bytes as a percentage of the
// original size.
func (s *Summary) SavingsPercentage() float64 {
	if s.OriginalSize == 0 {
		return 0
	}
	return float64(s.Savings()) * 100 / float64(s.OriginalSize)
}

// Duration returns the time spent between NewSummary and Finalize.
func (s *Summary) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// SavingsString formats the savings as shown to the user.
func (s *Summary) SavingsString() string {
	return fmt.Sprintf("savings: %d bytes = %.2f%%", s.Savings(), s.SavingsPercentage())
}

// Detail returns a per-compressor breakdown for debug output.
func (s *Summary) Detail() string {
	var b strings.Builder

	winner := s.Winner
	if winner == "" {
		winner = "none"
	}
	fmt.Fprintf(&b, "%s: %s -> %s in %s (winner: %s)\n",
		s.File,
		formatBytes(s.OriginalSize),
		formatBytes(s.CompressedSize),
		s.Duration().Round(time.Millisecond),
		winner)
	for _, c := range s.Candidates {
		fmt.Fprintf(&b, "  %-10s %10s  %s\n",
			c.Compressor,
			formatBytes(c.Size),
			c.Duration.Round(time.Millisecond))
	}
	return b.String()
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
