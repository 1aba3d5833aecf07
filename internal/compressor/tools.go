package compressor

// Names of the supported external compressors.
const (
	PngcrushName  = "pngcrush"
	OptipngName   = "optipng"
	ZopflipngName = "zopflipng"
	JpegtranName  = "jpegtran"
	JpegoptimName = "jpegoptim"
)

// DefaultBinaries maps every compressor to the executable looked up in PATH.
func DefaultBinaries() map[string]string {
	return map[string]string{
		PngcrushName:  PngcrushName,
		OptipngName:   OptipngName,
		ZopflipngName: ZopflipngName,
		JpegtranName:  JpegtranName,
		JpegoptimName: JpegoptimName,
	}
}

// Pngcrush removes ancillary chunks and tries every filter and zlib
// strategy.
func Pngcrush(binary string) *Command {
	return &Command{
		ToolName: PngcrushName,
		Binary:   binaryOr(binary, PngcrushName),
		Args: func(input, output string) []string {
			return []string{"-rem", "alla", "-reduce", "-brute", "-q", input, output}
		},
	}
}

// Optipng runs the most exhaustive optipng optimization level.
func Optipng(binary string) *Command {
	return &Command{
		ToolName: OptipngName,
		Binary:   binaryOr(binary, OptipngName),
		Args: func(input, output string) []string {
			return []string{"-out", output, "-o9", "-quiet", input}
		},
	}
}

// Zopflipng re-encodes the deflate stream with zopfli.
func Zopflipng(binary string) *Command {
	return &Command{
		ToolName: ZopflipngName,
		Binary:   binaryOr(binary, ZopflipngName),
		Args: func(input, output string) []string {
			return []string{"-m", "--lossy_transparent", "--filters=0me", input, output}
		},
	}
}

// Jpegtran optimizes the Huffman tables and drops all metadata.
func Jpegtran(binary string) *Command {
	return &Command{
		ToolName: JpegtranName,
		Binary:   binaryOr(binary, JpegtranName),
		Args: func(input, output string) []string {
			return []string{"-copy", "none", "-optimize", "-perfect", "-outfile", output, input}
		},
	}
}

// Jpegoptim strips metadata. It rewrites its argument in place.
func Jpegoptim(binary string) *Command {
	return &Command{
		ToolName: JpegoptimName,
		Binary:   binaryOr(binary, JpegoptimName),
		Args: func(_, output string) []string {
			return []string{"--strip-all", "--quiet", output}
		},
		InPlace: true,
	}
}

func binaryOr(binary, fallback string) string {
	if binary == "" {
		return fallback
	}
	return binary
}
