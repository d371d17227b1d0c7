package converter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AutoName is the meta-converter name that selects a backend automatically.
const AutoName = "auto"

// Registry tries every available backend in priority order until one
// succeeds. It is immutable after construction and safe for concurrent use.
type Registry struct {
	converters []Converter
	logger     *slog.Logger
}

// NewRegistry orders converters by descending priority. Converters with equal
// priority keep the order they were passed in.
func NewRegistry(logger *slog.Logger, converters ...Converter) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sorted := slices.Clone(converters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Registry{converters: sorted, logger: logger}
}

// Name returns AutoName.
func (r *Registry) Name() string {
	return AutoName
}

// Priority is zero: the registry is never a member of another registry.
func (r *Registry) Priority() uint8 {
	return 0
}

// Available reports whether at least one backend is available.
func (r *Registry) Available() bool {
	for _, c := range r.converters {
		if c.Available() {
			return true
		}
	}
	return false
}

// AvailableConverters returns the names of the available backends in
// priority order.
func (r *Registry) AvailableConverters() []string {
	names := make([]string, 0, len(r.converters))
	for _, c := range r.converters {
		if c.Available() {
			names = append(names, c.Name())
		}
	}
	return names
}

// Converters returns every backend in priority order, available or not.
func (r *Registry) Converters() []Converter {
	return slices.Clone(r.converters)
}

// Lookup finds a backend by name.
func (r *Registry) Lookup(name string) (Converter, bool) {
	for _, c := range r.converters {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Convert implements Converter.
func (r *Registry) Convert(ctx context.Context, input, output string) error {
	_, err := r.ConvertWith(ctx, input, output)
	return err
}

// ConvertWith converts input and returns the name of the backend that
// produced output.
//
// With no backend available the error wraps ErrConverterNotAvailable,
// whatever the input. Otherwise the input is validated, unavailable backends
// are skipped, and a failed attempt is logged before the next backend is
// tried. If every attempt fails the last error is returned.
func (r *Registry) ConvertWith(ctx context.Context, input, output string) (string, error) {
	ctx, span := tracer.Start(ctx, "registry.convert", trace.WithAttributes(
		attribute.String("converter.input", input),
		attribute.String("converter.output", output),
	))
	defer span.End()

	name, err := r.convertWith(ctx, input, output)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("converter.name", name))
	return name, nil
}

func (r *Registry) convertWith(ctx context.Context, input, output string) (string, error) {
	if !r.Available() {
		return "", fmt.Errorf("%w: no image converter available", ErrConverterNotAvailable)
	}
	if err := ValidateInput(input); err != nil {
		return "", err
	}

	var lastErr error
	for _, c := range r.converters {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !c.Available() {
			r.logger.Debug("skipping unavailable converter", "converter", c.Name())
			continue
		}

		r.logger.Info("using converter", "converter", c.Name(), "input", input, "output", output)
		err := c.Convert(ctx, input, output)
		if err == nil {
			return c.Name(), nil
		}
		r.logger.Warn("converter failed, trying next", "converter", c.Name(), "error", err)
		lastErr = err
	}

	if lastErr == nil {
		return "", fmt.Errorf("%w: no image converter available", ErrConverterNotAvailable)
	}
	r.logger.Error("all converters failed", "input", input, "error", lastErr)
	return "", lastErr
}
