package pricing

import "errors"

var (
	// ErrInvalidPriceFormat reports a price that cannot be read as a number.
	ErrInvalidPriceFormat = errors.New("pricing: invalid price format")
	// ErrDivisionByZero reports an inversion attempted on a zero quote.
	ErrDivisionByZero = errors.New("pricing: division by zero")
	// ErrInvalidPair reports a symbol that is not a 6-letter currency pair.
	ErrInvalidPair = errors.New("pricing: invalid currency pair")
	// ErrUnknownPair reports an update for a symbol the price table does not track.
	ErrUnknownPair = errors.New("pricing: unknown currency pair")
	// ErrNotInitialized is returned by Next when Initialize has not run.
	ErrNotInitialized = errors.New("pricing: handler not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("pricing: handler already initialized")
	// ErrConnectionFailed reports a stream that could not be opened.
	ErrConnectionFailed = errors.New("pricing: connection failed")
	// ErrEmptyArchive reports a historic archive with no files for the configured pairs.
	ErrEmptyArchive = errors.New("pricing: no archive files for configured pairs")
)
