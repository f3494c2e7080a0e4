// In file: internal/weather/errors.go
package weather

import (
	"errors"
	"fmt"
)

// Lookup failures are classified with these sentinels; use errors.Is to test
// for a kind. Service.Lookup flattens all of them into an error Result.
var (
	// ErrLookup is the root of every weather lookup failure.
	ErrLookup = errors.New("weather lookup")

	// ErrInvalidInput means the city name was empty after trimming.
	ErrInvalidInput = fmt.Errorf("%w: invalid input", ErrLookup)

	// ErrNotFound means the geocoding API returned no match for the city.
	ErrNotFound = fmt.Errorf("%w: location not found", ErrLookup)

	// ErrTransport covers network failures, cancelled contexts and non-2xx statuses.
	ErrTransport = fmt.Errorf("%w: transport failure", ErrLookup)

	// ErrMalformedResponse means a 2xx response could not be decoded or lacked a required field.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrLookup)
)
