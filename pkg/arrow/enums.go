package arrow

import "fmt"

// Role fixes the direction of one engine instance for its lifetime.
type Role int

const (
	// RoleSender drives transfers toward the peer.
	RoleSender Role = iota
	// RoleReceiver consumes transfers from the peer.
	RoleReceiver
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleSender:
		return "sender"
	case RoleReceiver:
		return "receiver"
	default:
		return "unknown"
	}
}

// ParseOperation maps the invocation operation to a Role.
func ParseOperation(s string) (Role, error) {
	switch s {
	case "send":
		return RoleSender, nil
	case "receive":
		return RoleReceiver, nil
	default:
		return 0, fmt.Errorf("%w: operation %q", ErrUnsupportedMode, s)
	}
}

// ConnectionMode selects which party initiates the transport connection.
type ConnectionMode int

const (
	// ConnectionClient dials the peer.
	ConnectionClient ConnectionMode = iota
	// ConnectionServer listens and accepts exactly one real peer per run.
	ConnectionServer
)

// String returns the string representation of the connection mode.
func (m ConnectionMode) String() string {
	switch m {
	case ConnectionClient:
		return "client"
	case ConnectionServer:
		return "server"
	default:
		return "unknown"
	}
}

// ParseConnectionMode parses the invocation connection-mode value.
func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch s {
	case "client":
		return ConnectionClient, nil
	case "server":
		return ConnectionServer, nil
	default:
		return 0, fmt.Errorf("%w: connection-mode %q", ErrUnsupportedMode, s)
	}
}

// ChannelMode selects which party initiates session and link creation.
type ChannelMode int

const (
	// ChannelActive opens the session and link toward the peer.
	ChannelActive ChannelMode = iota
	// ChannelPassive waits for the peer to open the session and link and
	// confirms them, mirroring the requested address back.
	ChannelPassive
)

// String returns the string representation of the channel mode.
func (m ChannelMode) String() string {
	switch m {
	case ChannelActive:
		return "active"
	case ChannelPassive:
		return "passive"
	default:
		return "unknown"
	}
}

// ParseChannelMode parses the invocation channel-mode value.
func ParseChannelMode(s string) (ChannelMode, error) {
	switch s {
	case "active":
		return ChannelActive, nil
	case "passive":
		return ChannelPassive, nil
	default:
		return 0, fmt.Errorf("%w: channel-mode %q", ErrUnsupportedMode, s)
	}
}

// State is one position in the engine's lifecycle state machine.
type State int

const (
	// StateIdle is the initial state before Run.
	StateIdle State = iota
	// StateConnecting covers the outbound connect or inbound listen/accept.
	StateConnecting
	// StateNegotiating covers session and link establishment.
	StateNegotiating
	// StateTransferring is the steady pumping state.
	StateTransferring
	// StateDraining covers the close of link, session, and connection.
	StateDraining
	// StateClosed is terminal; no transitions leave it.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateNegotiating:
		return "Negotiating"
	case StateTransferring:
		return "Transferring"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
