package model

import (
	"errors"
	"fmt"
)

// Input errors. The HTTP layer maps these to 400 responses.
var (
	ErrNoText            = errors.New("no text provided")
	ErrTextTooShort      = errors.New("text too short to analyze")
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrUploadTooLarge    = errors.New("uploaded file is too large")
	ErrUnsupportedFormat = errors.New("unsupported file type")
)

// ExtractionError reports a failure while turning an uploaded document into text.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is caused by bad client input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoText) ||
		errors.Is(err, ErrTextTooShort) ||
		errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, ErrUploadTooLarge) ||
		errors.Is(err, ErrUnsupportedFormat)
}
