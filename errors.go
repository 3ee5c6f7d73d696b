package gofilterer

import "errors"

// Declaration errors. They signal programmer mistakes and are returned (or
// panicked with, for Must* helpers) at the point of declaration.
var (
	ErrMissingOrderingSource = errors.New("must provide an ordering expression or resolver")
	ErrPatternDefault        = errors.New("default sort option can't have a pattern key")
	ErrResolverTiebreaker    = errors.New("tiebreaker sort option can't have a resolver")
)

// ErrMissingStartingQuery is returned when neither the Config nor the
// request options provide a starting query.
var ErrMissingStartingQuery = errors.New("must override starting query")

// ErrFiltererNotFound is returned by Registry when no Config is registered
// for the table behind a query.
var ErrFiltererNotFound = errors.New("filterer not found")
