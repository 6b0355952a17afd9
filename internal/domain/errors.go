package domain

import "errors"

var (
	// ErrListingNotFound is returned when a marketplace event references a
	// listing the store has never observed
	ErrListingNotFound = errors.New("listing not found")

	// ErrListingTerminal is returned when an accept or delete targets a
	// listing that already carries a terminal marker
	ErrListingTerminal = errors.New("listing already terminal")

	// ErrMalformedEvent is returned when an event tuple cannot be decoded
	ErrMalformedEvent = errors.New("malformed event tuple")
)
