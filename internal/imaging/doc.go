// Package imaging inspects image files written by external converters.
//
// Conversions are performed by other programs; this package only checks that
// what they produced is usable. Inspect reads a file at one of several depths:
//
//   - VerifyExists: the file exists and is not empty
//   - VerifyHeader: the image header decodes and reports non-zero dimensions
//   - VerifyDecode: the whole image decodes
//
// WebP decoding is provided by golang.org/x/image/webp, which handles the
// lossless (VP8L), lossy (VP8) and extended (VP8X) containers. Full decodes go
// through github.com/disintegration/imaging, so PNG, JPEG, GIF, TIFF and BMP
// outputs are accepted as well.
//
// # Performance Considerations
//
// VerifyDecode holds the full bitmap in memory. For large RAW exports prefer
// VerifyHeader, which only reads the first few bytes of the file.
package imaging
