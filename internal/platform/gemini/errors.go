package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyHistory is returned when an insight request carries no
	// history to narrate.
	ErrEmptyHistory = errors.New("insight request has no history to narrate")
)
