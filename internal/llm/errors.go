package llm

import (
	"errors"
	"fmt"
)

var ErrMissingAPIKey = errors.New("no API key configured")

// AuthenticationError means the key is missing or was rejected by the service.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// GenerationError covers every other failure of a streaming call: network,
// quota, malformed or blocked responses.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsGeneration reports whether err is a GenerationError.
func IsGeneration(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
