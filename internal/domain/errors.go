package domain

import "errors"

var (
	// ErrDatasetUnavailable is returned when the country dataset could not be loaded.
	ErrDatasetUnavailable = errors.New("country dataset not loaded")
	// ErrInsufficientPool is returned when a tier has fewer than four countries.
	ErrInsufficientPool = errors.New("not enough countries for this difficulty")
	// ErrUnknownDifficulty indicates a tier name outside {easy, medium, hard}.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrInvalidCount indicates a non-positive question count.
	ErrInvalidCount = errors.New("question count must be positive")
	// ErrValidation indicates a score submission with missing or malformed fields.
	ErrValidation = errors.New("missing required fields")
)
