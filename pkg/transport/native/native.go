// Package native binds the arrow engine to its built-in framed-TCP
// protocol (pkg/wire). Unlike the external-library bindings it supports
// the full mode matrix: client and server connections, active and passive
// channels. A server-mode receiver and a client-mode sender pair directly,
// with no broker in between.
package native

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/pion/logging"

	"github.com/mqbench/arrow/pkg/arrow"
)

// defaultAttachTimeout is how long a server waits for an accepted
// connection to attach before discarding it as a probe.
const defaultAttachTimeout = 5 * time.Second

// Config configures the native connector.
type Config struct {
	// Listener is an optional pre-existing listener for server mode.
	// If nil, a TCP listener is created on the configured address.
	// Useful for testing.
	Listener net.Listener

	// Dialer is an optional dial function for client mode. If nil,
	// a TCP dial is used. Useful for testing.
	Dialer func(ctx context.Context, address string) (net.Conn, error)

	// AttachTimeout bounds how long an accepted connection may take to
	// complete the attach handshake before it is discarded as a probe.
	// Zero means the default of 5 seconds.
	AttachTimeout time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Connector establishes native framed-TCP links.
type Connector struct {
	config Config
	log    logging.LeveledLogger
}

// NewConnector creates a native connector.
func NewConnector(config Config) *Connector {
	c := &Connector{config: config}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("native-transport")
	}
	return c
}

// Establish dials or listens per the connection mode. Connect and listen
// failures are reported here; link negotiation completes asynchronously
// with a LinkOpened event.
func (c *Connector) Establish(ctx context.Context, cfg arrow.EstablishConfig) (arrow.Link, error) {
	switch cfg.ConnectionMode {
	case arrow.ConnectionClient:
		conn, err := c.dial(ctx, cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", arrow.ErrConnectFailure, err)
		}
		l := newLink(cfg, c.log)
		go l.runClient(conn)
		return l, nil

	case arrow.ConnectionServer:
		listener := c.config.Listener
		if listener == nil {
			var err error
			listener, err = net.Listen("tcp", cfg.Address)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", arrow.ErrListenFailure, err)
			}
		}
		l := newLink(cfg, c.log)
		l.listener = listener
		l.attachTimeout = c.config.AttachTimeout
		if l.attachTimeout == 0 {
			l.attachTimeout = defaultAttachTimeout
		}
		go l.runServer()
		return l, nil

	default:
		return nil, fmt.Errorf("%w: connection-mode %v", arrow.ErrUnsupportedMode, cfg.ConnectionMode)
	}
}

func (c *Connector) dial(ctx context.Context, address string) (net.Conn, error) {
	if c.config.Dialer != nil {
		return c.config.Dialer(ctx, address)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", address)
}
