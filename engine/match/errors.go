package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/WessleyAI/occumatch/engine/embed"
)

// Sentinel errors. Validation failures are wrapped in *ValidationError.
var (
	ErrEmptyText           = errors.New("text is required")
	ErrTextTooLong         = errors.New("text is too long")
	ErrBatchSize           = errors.New("batch size out of range")
	ErrUpstreamUnavailable = errors.New("service temporarily unavailable, try again")
)

// ValidationError wraps a sentinel with the offending field.
type ValidationError struct {
	Field   string
	Detail  string
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Wrapped)
	}
	return fmt.Sprintf("validation: %s: %s (%s)", e.Field, e.Wrapped, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, detail string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Detail: detail, Wrapped: wrapped}
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateText rejects blank text and text longer than maxLen UTF-16 code
// units. A maxLen of 0 disables the length check.
func ValidateText(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("text", "", ErrEmptyText)
	}
	if maxLen > 0 {
		if n := embed.UTF16Len(text); n > maxLen {
			return NewValidationError("text", fmt.Sprintf("%d characters, max %d", n, maxLen), ErrTextTooLong)
		}
	}
	return nil
}

// ValidateBatch checks the batch size only; items are validated one by one
// so a bad item does not fail its neighbours.
func ValidateBatch(texts []string, maxSize int) error {
	if len(texts) == 0 {
		return NewValidationError("texts", "at least one text is required", ErrBatchSize)
	}
	if len(texts) > maxSize {
		return NewValidationError("texts", fmt.Sprintf("maximum %d texts allowed per batch", maxSize), ErrBatchSize)
	}
	return nil
}
