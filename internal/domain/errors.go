package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals a missing or invalid setting (e.g. an unusable API key).
	ErrConfiguration = errors.New("configuration error")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexUnavailable signals a vector index failure or timeout.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrInvalidArgument signals a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmbeddingSpaceMismatch signals a vector from another model or of another dimensionality.
	ErrEmbeddingSpaceMismatch = errors.New("embedding space mismatch")
)

// SpaceMismatchError describes a vector that does not belong to the configured embedding space.
// It matches both ErrEmbeddingSpaceMismatch and ErrInvalidArgument.
type SpaceMismatchError struct {
	Want Space
	Got  Space
}

func (e *SpaceMismatchError) Error() string {
	if e.Want.Model != e.Got.Model && e.Got.Model != "" {
		return fmt.Sprintf("%s: model %q, expected %q", ErrEmbeddingSpaceMismatch, e.Got.Model, e.Want.Model)
	}
	return fmt.Sprintf("%s: %d dimensions, expected %d", ErrEmbeddingSpaceMismatch, e.Got.Dimensions, e.Want.Dimensions)
}

func (e *SpaceMismatchError) Unwrap() []error {
	return []error{ErrEmbeddingSpaceMismatch, ErrInvalidArgument}
}

// InvalidArgument wraps a validation message with ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
