package converter

import "os/exec"

const (
	// ImageMagickName identifies the ImageMagick backend.
	ImageMagickName = "imagemagick"

	// ImageMagickPriority ranks ImageMagick above darktable: it is usually
	// the faster of the two.
	ImageMagickPriority uint8 = 60
)

// DefaultImageMagickCommands lists the executables tried in order. The
// versioned name wins when both are installed.
var DefaultImageMagickCommands = []string{"convert7", "magick"}

// webpDefines selects lossless, exact, maximum-effort encoding without a
// partition limit.
var webpDefines = []string{
	"-define", "webp:lossless=true",
	"-define", "webp:exact=true",
	"-define", "webp:method=6",
	"-define", "webp:partition-limit=0",
}

// ImageMagick converts with the ImageMagick CLI.
type ImageMagick struct {
	commandConverter
}

// NewImageMagick resolves the first of commands found on PATH. When none is
// installed the first name is kept, so Available reports false until it
// appears. An empty list means DefaultImageMagickCommands.
func NewImageMagick(commands []string, opts ...Option) *ImageMagick {
	if len(commands) == 0 {
		commands = DefaultImageMagickCommands
	}
	command := commands[0]
	for _, candidate := range commands {
		if _, err := exec.LookPath(candidate); err == nil {
			command = candidate
			break
		}
	}

	return &ImageMagick{commandConverter{
		name:     ImageMagickName,
		priority: ImageMagickPriority,
		command:  command,
		args:     imageMagickArgs,
		opts:     buildOptions(opts),
	}}
}

func imageMagickArgs(input, output string) []string {
	args := make([]string, 0, len(webpDefines)+2)
	args = append(args, input)
	args = append(args, webpDefines...)
	return append(args, output)
}
