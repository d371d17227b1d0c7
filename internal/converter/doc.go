// Package converter wraps the external programs that turn DNG RAW files into
// WebP images.
//
// Each backend implements the Converter interface. Two backends exist:
//
//   - ImageMagick: invoked as convert7 or magick with lossless, exact,
//     maximum-effort WebP encoding defines. Priority 60.
//   - Darktable: invoked as darktable-cli with just the input and output
//     paths. Priority 40.
//
// # Auto-selection
//
// Registry holds the backends ordered by descending priority and tries each
// available one in turn. A failing backend does not abort the conversion: the
// error is remembered and the next backend is attempted. When every available
// backend fails, the error of the last attempt is returned. When none is
// available, the error wraps ErrConverterNotAvailable.
//
// # Availability
//
// Available resolves the backend's executable on PATH on every call. Nothing
// is cached, so installing or removing a tool is picked up by the next request.
//
// # Errors
//
// All failures wrap one of the package sentinels and can be tested with
// errors.Is:
//
//   - ErrFileNotFound: the input path does not exist
//   - ErrInvalidInput: the input is not a .dng file
//   - ErrConverterNotAvailable: the requested backend (or every backend) is missing
//   - ErrConversionFailed: the external program exited non-zero, or its
//     output did not pass verification
//
// Failure diagnostics come from the program's standard error, or from its
// standard output when standard error is empty.
package converter
