package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	imgio "github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// VerifyMode selects how thoroughly an output file is checked.
type VerifyMode int

const (
	VerifyNone VerifyMode = iota
	VerifyExists
	VerifyHeader
	VerifyDecode
)

var verifyModeNames = map[VerifyMode]string{
	VerifyNone:   "none",
	VerifyExists: "exists",
	VerifyHeader: "header",
	VerifyDecode: "decode",
}

func (m VerifyMode) String() string {
	if name, ok := verifyModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("VerifyMode(%d)", int(m))
}

// ParseVerifyMode converts a configuration value into a VerifyMode. Matching
// is case-insensitive; an empty string means VerifyNone.
func ParseVerifyMode(s string) (VerifyMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return VerifyNone, nil
	}
	for mode, name := range verifyModeNames {
		if name == s {
			return mode, nil
		}
	}
	return VerifyNone, fmt.Errorf("unknown verify mode %q (want none, exists, header or decode)", s)
}

// ErrEmptyImage is returned for zero-byte files and zero-sized images.
var ErrEmptyImage = errors.New("image is empty")

// ImageInfo describes an inspected image file. Fields that the chosen
// VerifyMode does not read are left at their zero value.
type ImageInfo struct {
	// Width and Height are in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name ("webp", "png", ...) for header and decode
	// checks, or derived from the extension otherwise.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit". Only set by VerifyDecode.
	ColorDepth string `json:"color_depth,omitempty"`

	// HasAlpha is only set by VerifyDecode.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Inspect checks path according to mode and reports what it found.
// VerifyNone is treated like VerifyExists; use NewVerifier to skip checks
// entirely.
func Inspect(path string, mode VerifyMode) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if stat.Size() == 0 {
		return nil, fmt.Errorf("%w: %s has zero bytes", ErrEmptyImage, path)
	}

	info := &ImageInfo{
		Format:        formatFromExt(path),
		FileSizeBytes: stat.Size(),
	}

	switch mode {
	case VerifyHeader:
		if err := readHeader(path, info); err != nil {
			return nil, err
		}
	case VerifyDecode:
		if err := decodeFull(path, info); err != nil {
			return nil, err
		}
	}

	return info, nil
}

func readHeader(path string, info *ImageInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: header reports %dx%d", ErrEmptyImage, cfg.Width, cfg.Height)
	}

	info.Width = cfg.Width
	info.Height = cfg.Height
	info.Format = format
	return nil
}

func decodeFull(path string, info *ImageInfo) error {
	img, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%w: decoded image has no pixels", ErrEmptyImage)
	}
	info.Width = bounds.Dx()
	info.Height = bounds.Dy()

	info.ColorDepth = "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray16:
		info.ColorDepth = "16-bit"
	}
	return nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return "webp"
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	}
	return "unknown"
}

// NewVerifier returns a check suitable for converter.WithVerifier, or nil for
// VerifyNone. Successful checks are logged at debug level.
func NewVerifier(mode VerifyMode, logger *slog.Logger) func(path string) error {
	if mode == VerifyNone {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(path string) error {
		info, err := Inspect(path, mode)
		if err != nil {
			return err
		}
		logger.Debug("verified output",
			"path", path,
			"mode", mode.String(),
			"format", info.Format,
			"width", info.Width,
			"height", info.Height,
			"bytes", info.FileSizeBytes)
		return nil
	}
}
