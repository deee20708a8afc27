package fiche

import "errors"

var (
	// ErrEmptyScan means the scanner produced no data at all.
	ErrEmptyScan = errors.New("no code found")

	// ErrInvalidPayload means a code was found but its content is not a
	// JSON object, plain or base64 data-URI.
	ErrInvalidPayload = errors.New("invalid payload")
)
