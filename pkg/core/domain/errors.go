package domain

import "errors"

var (
	// ErrInvalidURL means the target URL did not parse with a scheme and host.
	ErrInvalidURL = errors.New("invalid target URL")

	// ErrInvalidCode means a requested code is not 6-8 alphanumeric characters.
	ErrInvalidCode = errors.New("code must be 6-8 alphanumeric characters")

	// ErrCodeTaken means the code already exists in the store.
	ErrCodeTaken = errors.New("code already exists")

	// ErrNotFound means no link exists for the code.
	ErrNotFound = errors.New("link not found")

	// ErrCodeSpaceExhausted means code generation ran out of retry attempts.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")
)
