package arrow

import "github.com/mqbench/arrow/pkg/wire"

// EventType identifies one transport or timer event consumed by the pump.
type EventType int

const (
	// EventLinkOpened fires once, when session and link negotiation completes.
	EventLinkOpened EventType = iota
	// EventCreditAvailable fires when the sender's capacity becomes nonzero.
	EventCreditAvailable
	// EventDeliveryReady carries one complete received message.
	EventDeliveryReady
	// EventAcknowledged reports the settlement of one sent transfer.
	EventAcknowledged
	// EventTimerExpired requests a graceful stop when the duration elapses.
	EventTimerExpired
	// EventTransportClosed reports the end of the connection. Err is nil for
	// a clean close and carries the peer's condition otherwise.
	EventTransportClosed
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventLinkOpened:
		return "LinkOpened"
	case EventCreditAvailable:
		return "CreditAvailable"
	case EventDeliveryReady:
		return "DeliveryReady"
	case EventAcknowledged:
		return "Acknowledged"
	case EventTimerExpired:
		return "TimerExpired"
	case EventTransportClosed:
		return "TransportClosed"
	default:
		return "Unknown"
	}
}

// Event is one unit of work for the pump's dispatch loop.
type Event struct {
	Type EventType

	// Message is set for DeliveryReady.
	Message *wire.Message

	// Tag is set for Acknowledged: the delivery tag of the settled transfer.
	Tag string

	// Err is set for TransportClosed when the close carried an error.
	Err error
}
