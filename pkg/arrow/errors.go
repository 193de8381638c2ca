package arrow

import "errors"

// Engine errors. Everything surfaces out of Run; nothing is retried.
var (
	// ErrUnsupportedMode is returned before any connection attempt when the
	// requested connection/channel/operation combination cannot be served.
	ErrUnsupportedMode = errors.New("arrow: unsupported mode")

	// ErrTransactionsUnsupported is returned at construction for a nonzero
	// transaction size.
	ErrTransactionsUnsupported = errors.New("arrow: transactions not supported")

	// ErrConnectFailure is returned when the outbound connect cannot complete.
	ErrConnectFailure = errors.New("arrow: connect failed")

	// ErrListenFailure is returned when the listen/bind cannot be performed.
	ErrListenFailure = errors.New("arrow: listen failed")

	// ErrProtocolError is returned when the peer closes with an error condition.
	ErrProtocolError = errors.New("arrow: peer signaled error")

	// ErrProtocolViolation is returned for malformed or partial deliveries and
	// unexpected property shapes. The engine never drops or guesses.
	ErrProtocolViolation = errors.New("arrow: protocol violation")

	// ErrNoConnector is returned when the engine is constructed without a
	// transport binding.
	ErrNoConnector = errors.New("arrow: no connector configured")

	// ErrNoOutput is returned when the engine is constructed without an
	// output writer.
	ErrNoOutput = errors.New("arrow: no output writer configured")
)
