package converter

const (
	// DarktableName identifies the darktable backend.
	DarktableName = "darktable"

	// DarktablePriority ranks darktable below ImageMagick. It renders RAW
	// files more faithfully but is slower.
	DarktablePriority uint8 = 40

	// DefaultDarktableCommand is the darktable command-line exporter.
	DefaultDarktableCommand = "darktable-cli"
)

// Darktable converts with darktable-cli, which picks its own WebP encoding
// parameters from the output extension.
type Darktable struct {
	commandConverter
}

// NewDarktable returns a darktable backend invoking command, or
// DefaultDarktableCommand when command is empty.
func NewDarktable(command string, opts ...Option) *Darktable {
	if command == "" {
		command = DefaultDarktableCommand
	}
	return &Darktable{commandConverter{
		name:     DarktableName,
		priority: DarktablePriority,
		command:  command,
		args: func(input, output string) []string {
			return []string{input, output}
		},
		opts: buildOptions(opts),
	}}
}
