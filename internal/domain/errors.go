package domain

import "errors"

var (
	// ErrEmptyQuery signals a missing or empty user query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrSearchProvider signals a search provider failure (transport or non-2xx).
	ErrSearchProvider = errors.New("search provider error")
	// ErrGenerationProvider signals a generation provider failure (transport or non-2xx).
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrMalformedCompletion signals a 2xx completion whose body breaks the
	// provider contract (no choices, empty content). Kept distinct from
	// ErrGenerationProvider: a transport failure and a contract violation
	// are different bugs.
	ErrMalformedCompletion = errors.New("malformed completion response")
)
