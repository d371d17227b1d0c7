package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ironsheep/mcp-imagemagick/internal/converter"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConvertArgs are the arguments of convert_dng_to_webp.
type ConvertArgs struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	// Converter is "auto", "imagemagick" or "darktable". Any other value
	// selects auto.
	Converter string `json:"converter"`
}

// ConversionResult describes a finished conversion.
type ConversionResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OutputPath string `json:"output_path"`
	Converter  string `json:"converter"`
}

// ConverterInfo reports one backend's availability.
type ConverterInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// CheckResult is the outcome of check_converters.
type CheckResult struct {
	Converters     []ConverterInfo `json:"converters"`
	AvailableCount int             `json:"available_count"`
}

// Text renders the result as a bulleted list with a trailing count line.
func (r *CheckResult) Text() string {
	var b strings.Builder
	b.WriteString("Available converters:\n")
	for _, c := range r.Converters {
		status := "Not available"
		if c.Available {
			status = "Available"
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, status)
	}
	fmt.Fprintf(&b, "\nTotal available: %d", r.AvailableCount)
	return b.String()
}

// ToolHandler executes the tools advertised by ToolDefinitions.
type ToolHandler struct {
	registry *converter.Registry
	logger   *slog.Logger
}

// NewToolHandler serves tool calls from the backends held by registry.
func NewToolHandler(registry *converter.Registry, logger *slog.Logger) *ToolHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ToolHandler{registry: registry, logger: logger}
}

// Call executes the named tool and wraps its result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<message>"}]
//	}
func (h *ToolHandler) Call(ctx context.Context, name string, args json.RawMessage) (*mcp.CallToolResult, error) {
	var text string
	switch name {
	case ConvertToolName:
		a, err := decodeConvertArgs(args)
		if err != nil {
			return nil, err
		}
		result, err := h.ConvertDNGToWebP(ctx, a)
		if err != nil {
			return nil, err
		}
		text = result.Message

	case CheckToolName:
		var a struct{}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		result := h.CheckConverters()
		text = result.Text()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}, nil
}

// convertArgsWire distinguishes absent fields from empty strings.
type convertArgsWire struct {
	InputPath  *string `json:"input_path"`
	OutputPath *string `json:"output_path"`
	Converter  *string `json:"converter"`
}

func decodeConvertArgs(raw json.RawMessage) (ConvertArgs, error) {
	var w convertArgsWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return ConvertArgs{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if w.InputPath == nil {
		return ConvertArgs{}, fmt.Errorf("%w: missing field input_path", ErrInvalidParams)
	}
	if w.OutputPath == nil {
		return ConvertArgs{}, fmt.Errorf("%w: missing field output_path", ErrInvalidParams)
	}

	a := ConvertArgs{
		InputPath:  *w.InputPath,
		OutputPath: *w.OutputPath,
		Converter:  converter.AutoName,
	}
	if w.Converter != nil {
		a.Converter = *w.Converter
	}
	return a, nil
}

// ConvertDNGToWebP converts with the requested backend. A named backend that
// is not installed fails immediately; only auto falls back between backends.
func (h *ToolHandler) ConvertDNGToWebP(ctx context.Context, args ConvertArgs) (*ConversionResult, error) {
	var used string
	switch args.Converter {
	case converter.ImageMagickName, converter.DarktableName:
		c, ok := h.registry.Lookup(args.Converter)
		if !ok || !c.Available() {
			return nil, fmt.Errorf("%w: %s is not available", converter.ErrConverterNotAvailable, args.Converter)
		}
		if err := c.Convert(ctx, args.InputPath, args.OutputPath); err != nil {
			return nil, err
		}
		used = c.Name()

	default:
		if args.Converter != converter.AutoName {
			h.logger.Warn("unknown converter requested, using auto", "converter", args.Converter)
		}
		name, err := h.registry.ConvertWith(ctx, args.InputPath, args.OutputPath)
		if err != nil {
			return nil, err
		}
		used = name
	}

	return &ConversionResult{
		Success:    true,
		Message:    fmt.Sprintf("Successfully converted %s to %s using %s", args.InputPath, args.OutputPath, used),
		OutputPath: args.OutputPath,
		Converter:  used,
	}, nil
}

// CheckConverters probes every backend directly. It never fails.
func (h *ToolHandler) CheckConverters() *CheckResult {
	all := h.registry.Converters()
	result := &CheckResult{Converters: make([]ConverterInfo, 0, len(all))}
	for _, c := range all {
		available := c.Available()
		if available {
			result.AvailableCount++
		}
		result.Converters = append(result.Converters, ConverterInfo{Name: c.Name(), Available: available})
	}
	return result
}
