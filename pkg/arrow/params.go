package arrow

import (
	"fmt"
	"time"
)

// Params is the immutable run configuration, fixed at engine construction.
type Params struct {
	// Role is the transfer direction.
	Role Role

	// ConnectionMode selects outbound connect or inbound listen.
	ConnectionMode ConnectionMode

	// ChannelMode selects active or passive session/link establishment.
	ChannelMode ChannelMode

	// ID is the container identity presented to the peer.
	ID string

	// Address is the socket address, host:port.
	Address string

	// Path is the source or target address (queue name) on the link.
	Path string

	// Duration bounds the run in wall-clock time. Zero means unbounded.
	Duration time.Duration

	// Count is the target transfer count. Zero means unbounded.
	Count uint64

	// BodySize is the generated message body length in bytes.
	BodySize int

	// CreditWindow is the credit window in message units.
	CreditWindow int

	// TransactionSize groups transfers into commit units. Zero disables
	// transactions; nonzero values are rejected at construction.
	TransactionSize int

	// Durable marks sent messages for persistent delivery.
	Durable bool

	// Settlement enables sender-side settlement-latency records.
	Settlement bool
}

// Validate applies the configuration rejection rules. It runs before any
// socket is opened; a run with Duration == 0 and Count == 0 is accepted
// but will only stop on external cancellation.
func (p *Params) Validate() error {
	if p.TransactionSize > 0 {
		return ErrTransactionsUnsupported
	}
	if p.BodySize < 0 {
		return fmt.Errorf("%w: negative body-size", ErrUnsupportedMode)
	}
	if p.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrUnsupportedMode)
	}
	if p.CreditWindow < 1 {
		return fmt.Errorf("%w: credit-window must be at least 1", ErrUnsupportedMode)
	}
	return nil
}
