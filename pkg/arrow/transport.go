package arrow

import (
	"context"

	"github.com/mqbench/arrow/pkg/wire"
)

// EstablishConfig carries everything a transport binding needs to bring up
// the single connection, session, and link for one run.
type EstablishConfig struct {
	// Role, ConnectionMode, ChannelMode select the endpoint's part in
	// connection and link establishment.
	Role           Role
	ConnectionMode ConnectionMode
	ChannelMode    ChannelMode

	// ID is the container identity.
	ID string

	// Address is the socket address to dial or bind.
	Address string

	// Path is the link's source or target address.
	Path string

	// CreditWindow sizes the receive prefetch for bindings that manage
	// credit internally.
	CreditWindow int

	// Events is the engine's event channel. The binding delivers
	// LinkOpened, CreditAvailable, DeliveryReady, Acknowledged, and
	// TransportClosed here and never blocks the engine any other way.
	Events chan<- Event
}

// Connector establishes the transport for one run.
//
// Establish validates the mode combination and performs the connect or
// listen synchronously: an unsupported combination, a failed dial, or a
// failed bind is reported here, before any transfer begins. Session and
// link negotiation proceed asynchronously; the binding signals completion
// with a LinkOpened event.
//
// In server mode the binding accepts inbound connections until one
// negotiates a link. Connections that close or error before negotiating
// are probes: the binding discards them without surfacing an error.
type Connector interface {
	Establish(ctx context.Context, cfg EstablishConfig) (Link, error)
}

// Link is the single transfer channel of a run. The engine is its only
// user; bindings must not require concurrent callers.
type Link interface {
	// Capacity reports how many messages the sender may hand to the
	// transport right now. The engine never sends beyond it.
	Capacity() int

	// Send hands one message to the transport. The delivery tag is the
	// message id; settlement is reported by an Acknowledged event.
	Send(m *wire.Message) error

	// IssueCredit grants the peer n more transfers. Bindings whose
	// underlying library manages credit itself treat this as a no-op.
	IssueCredit(n int) error

	// Accept acknowledges the delivery with the given tag.
	Accept(tag string) error

	// Close tears down link, session, and connection, in that order, and
	// stops listening in server mode. It is idempotent; completion is
	// reported by a TransportClosed event.
	Close() error
}
