package converter

import "errors"

var (
	ErrFileNotFound          = errors.New("file not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConverterNotAvailable = errors.New("converter not available")
	ErrConversionFailed      = errors.New("conversion failed")
)
