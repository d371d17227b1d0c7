package server

import (
	"github.com/ironsheep/mcp-imagemagick/internal/converter"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names accepted by tools/call.
const (
	ConvertToolName = "convert_dng_to_webp"
	CheckToolName   = "check_converters"
)

var toolDefinitions = []mcp.Tool{
	mcp.NewTool(ConvertToolName,
		mcp.WithDescription("Convert DNG image to WebP format without loss"),
		mcp.WithString("input_path",
			mcp.Required(),
			mcp.Description("Path to DNG file"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Path for WebP output"),
		),
		mcp.WithString("converter",
			mcp.Enum(converter.AutoName, converter.ImageMagickName, converter.DarktableName),
			mcp.DefaultString(converter.AutoName),
			mcp.Description("Which converter to use (auto selects the best available)"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	),
	mcp.NewTool(CheckToolName,
		mcp.WithDescription("Check which image converters are available on the system"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	),
}

// ToolDefinitions returns all available tools
func ToolDefinitions() []mcp.Tool {
	tools := make([]mcp.Tool, len(toolDefinitions))
	copy(tools, toolDefinitions)
	return tools
}
