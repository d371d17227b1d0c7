package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ironsheep/mcp-imagemagick/internal/converter")

// Converter converts a DNG file into a WebP file using some backend.
type Converter interface {
	// Convert writes a WebP rendition of input to output. It blocks until the
	// backend has finished.
	Convert(ctx context.Context, input, output string) error

	// Available reports whether the backend can currently be used.
	Available() bool

	// Name is the stable identifier used for selection and in messages.
	Name() string

	// Priority ranks the backend for auto-selection. Higher wins.
	Priority() uint8
}

// Verifier inspects a file that a backend reported as successfully written.
// A non-nil error turns the conversion into a failure.
type Verifier func(path string) error

type options struct {
	verify Verifier
	logger *slog.Logger
}

// Option configures a command-backed converter.
type Option func(*options)

// WithVerifier checks every output file after the backend exits cleanly.
func WithVerifier(v Verifier) Option {
	return func(o *options) {
		o.verify = v
	}
}

// WithLogger sets the logger used for conversion events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// ValidateInput checks that input exists and carries a .dng extension
// (in any letter case).
func ValidateInput(input string) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, input)
	}
	if !strings.EqualFold(filepath.Ext(input), ".dng") {
		return fmt.Errorf("%w: input file must be a DNG file: %s", ErrInvalidInput, input)
	}
	return nil
}

// EnsureOutputDir creates the parent directory of output if it is missing.
func EnsureOutputDir(output string) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}

// commandConverter is the shared implementation behind the backends that
// shell out to a single executable.
type commandConverter struct {
	name     string
	priority uint8
	command  string
	args     func(input, output string) []string
	opts     options
}

func (c *commandConverter) Name() string {
	return c.name
}

func (c *commandConverter) Priority() uint8 {
	return c.priority
}

// Command returns the executable name the converter invokes.
func (c *commandConverter) Command() string {
	return c.command
}

func (c *commandConverter) Available() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

func (c *commandConverter) Convert(ctx context.Context, input, output string) error {
	ctx, span := tracer.Start(ctx, "converter."+c.name, trace.WithAttributes(
		attribute.String("converter.command", c.command),
		attribute.String("converter.input", input),
		attribute.String("converter.output", output),
	))
	defer span.End()

	if err := c.convert(ctx, input, output); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *commandConverter) convert(ctx context.Context, input, output string) error {
	if err := ValidateInput(input); err != nil {
		return err
	}
	if err := EnsureOutputDir(output); err != nil {
		return err
	}

	res, err := runCommand(ctx, c.command, c.args(input, output)...)
	if err != nil {
		return err
	}
	if !res.success() {
		return fmt.Errorf("%w: %s exited with status %d: %s",
			ErrConversionFailed, c.command, res.exitCode, res.diagnostic())
	}

	if c.opts.verify != nil {
		if err := c.opts.verify(output); err != nil {
			return fmt.Errorf("%w: %s exited cleanly but the output is unusable: %v",
				ErrConversionFailed, c.command, err)
		}
	}

	c.opts.logger.Info("conversion succeeded",
		"converter", c.name, "input", input, "output", output)
	return nil
}
