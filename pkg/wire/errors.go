package wire

import "errors"

// Wire codec errors.
var (
	// ErrFrameTooShort is returned when a frame ends before its declared fields.
	ErrFrameTooShort = errors.New("wire: frame too short")

	// ErrFrameTooLong is returned when a frame exceeds the maximum size.
	ErrFrameTooLong = errors.New("wire: frame exceeds maximum size")

	// ErrInvalidFrameType is returned for an unknown frame type byte.
	ErrInvalidFrameType = errors.New("wire: invalid frame type")

	// ErrInvalidLengthPrefix is returned for a zero-length frame prefix.
	ErrInvalidLengthPrefix = errors.New("wire: invalid length prefix")

	// ErrStreamReadFailed is returned when reading from the stream fails mid-frame.
	ErrStreamReadFailed = errors.New("wire: failed to read from stream")

	// ErrMessageTruncated is returned when a transfer payload ends before its
	// declared body length. Partial deliveries are a protocol violation.
	ErrMessageTruncated = errors.New("wire: message truncated")

	// ErrMissingSendTime is returned when a decoded message carries no send time.
	ErrMissingSendTime = errors.New("wire: message has no send time")
)
