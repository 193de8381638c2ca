// Package amqp binds the arrow engine to AMQP 1.0 brokers and routers via
// github.com/Azure/go-amqp. The library is client-only, so this binding
// serves the client connection mode with an active channel; requests for
// server or passive operation fail before any connection attempt.
package amqp

import (
	"context"
	"crypto/tls"
	"fmt"

	goamqp "github.com/Azure/go-amqp"
	"github.com/pion/logging"

	"github.com/mqbench/arrow/pkg/arrow"
	"github.com/mqbench/arrow/pkg/wire"
)

// Config configures the AMQP connector.
type Config struct {
	// Username and Password select SASL PLAIN. When both are empty the
	// connection authenticates with the anonymous mechanism.
	Username string
	Password string

	// TLSConfig enables TLS when non-nil and is passed verbatim to the
	// underlying transport.
	TLSConfig *tls.Config

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Connector establishes AMQP 1.0 links.
type Connector struct {
	config Config
	log    logging.LeveledLogger
}

// NewConnector creates an AMQP connector.
func NewConnector(config Config) *Connector {
	c := &Connector{config: config}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("amqp-transport")
	}
	return c
}

// Establish dials the peer, opens the single session, and opens a sender
// or receiver link on the configured path. Unsupported modes are rejected
// here, before the dial.
func (c *Connector) Establish(ctx context.Context, cfg arrow.EstablishConfig) (arrow.Link, error) {
	if cfg.ConnectionMode != arrow.ConnectionClient {
		return nil, fmt.Errorf("%w: amqp binding cannot act as a server", arrow.ErrUnsupportedMode)
	}
	if cfg.ChannelMode != arrow.ChannelActive {
		return nil, fmt.Errorf("%w: amqp binding cannot negotiate passively", arrow.ErrUnsupportedMode)
	}

	opts := &goamqp.ConnOptions{ContainerID: cfg.ID}
	if c.config.Username != "" || c.config.Password != "" {
		opts.SASLType = goamqp.SASLTypePlain(c.config.Username, c.config.Password)
	} else {
		opts.SASLType = goamqp.SASLTypeAnonymous()
	}

	scheme := "amqp"
	if c.config.TLSConfig != nil {
		scheme = "amqps"
		opts.TLSConfig = c.config.TLSConfig
	}

	conn, err := goamqp.Dial(ctx, fmt.Sprintf("%s://%s", scheme, cfg.Address), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arrow.ErrConnectFailure, err)
	}

	session, err := conn.NewSession(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: opening session: %v", arrow.ErrConnectFailure, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	l := &link{
		cfg:       cfg,
		log:       c.log,
		conn:      conn,
		drainWait: closeTimeout,
		ctx:       runCtx,
		cancel:    cancel,
	}

	switch cfg.Role {
	case arrow.RoleSender:
		sender, err := session.NewSender(ctx, cfg.Path, &goamqp.SenderOptions{
			// At-least-once: send unsettled, receiver settles first.
			SettlementMode:              goamqp.SenderSettleModeUnsettled.Ptr(),
			RequestedReceiverSettleMode: goamqp.ReceiverSettleModeFirst.Ptr(),
		})
		if err != nil {
			cancel()
			_ = conn.Close()
			return nil, fmt.Errorf("%w: opening sender link: %v", arrow.ErrConnectFailure, err)
		}
		l.sender = sender
		l.sendQ = make(chan *wire.Message, cfg.CreditWindow)
		go l.runSender()

	case arrow.RoleReceiver:
		receiver, err := session.NewReceiver(ctx, cfg.Path, &goamqp.ReceiverOptions{
			Credit: int32(cfg.CreditWindow),
		})
		if err != nil {
			cancel()
			_ = conn.Close()
			return nil, fmt.Errorf("%w: opening receiver link: %v", arrow.ErrConnectFailure, err)
		}
		l.receiver = receiver
		go l.runReceiver()

	default:
		cancel()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: role %v", arrow.ErrUnsupportedMode, cfg.Role)
	}

	return l, nil
}
