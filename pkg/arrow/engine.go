package arrow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pion/logging"

	"github.com/mqbench/arrow/pkg/flow"
	"github.com/mqbench/arrow/pkg/output"
	"github.com/mqbench/arrow/pkg/wire"
)

// minEventQueue bounds the event channel from below so timer and close
// events always have room behind a burst of deliveries.
const minEventQueue = 32

// Config configures an Engine.
type Config struct {
	// Params is the immutable run configuration.
	Params Params

	// Connector is the transport binding to drive.
	// Required.
	Connector Connector

	// Output receives the timing records.
	// Required.
	Output *output.Writer

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Engine drives exactly one role, send or receive, to completion over a
// single connection, session, and link. It owns those exclusively for the
// lifetime of the run; the flow controller, sampler, and batcher only
// advise it through return values.
type Engine struct {
	params    Params
	connector Connector
	out       *output.Writer
	log       logging.LeveledLogger

	events  chan Event
	link    Link
	credit  *flow.Controller
	sampler SettlementSampler
	batcher *TransactionBatcher
	timer   *Timer

	state         State
	stopRequested bool

	sent     uint64
	received uint64
	accepted uint64

	body []byte
	now  func() int64
}

// New creates an engine. Configuration rejection happens here, before any
// socket is opened: a nonzero transaction size fails immediately.
func New(cfg Config) (*Engine, error) {
	if cfg.Connector == nil {
		return nil, ErrNoConnector
	}
	if cfg.Output == nil {
		return nil, ErrNoOutput
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	queue := 2 * cfg.Params.CreditWindow
	if queue < minEventQueue {
		queue = minEventQueue
	}

	e := &Engine{
		params:    cfg.Params,
		connector: cfg.Connector,
		out:       cfg.Output,
		events:    make(chan Event, queue),
		credit:    flow.NewController(cfg.Params.CreditWindow),
		batcher:   NewTransactionBatcher(cfg.Params.TransactionSize),
		state:     StateIdle,
		body:      bytes.Repeat([]byte{'x'}, cfg.Params.BodySize),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
	if cfg.LoggerFactory != nil {
		e.log = cfg.LoggerFactory.NewLogger("arrow-engine")
	}
	return e, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Counters returns the monotonically increasing sent, received, and
// accepted counts.
func (e *Engine) Counters() (sent, received, accepted uint64) {
	return e.sent, e.received, e.accepted
}

// Run establishes the transport, pumps transfers until the target count is
// reached, the duration elapses, or the peer closes, and tears everything
// down. The output writer is flushed on every exit path.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		if ferr := e.out.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	e.setState(StateConnecting)
	link, cerr := e.connector.Establish(ctx, EstablishConfig{
		Role:           e.params.Role,
		ConnectionMode: e.params.ConnectionMode,
		ChannelMode:    e.params.ChannelMode,
		ID:             e.params.ID,
		Address:        e.params.Address,
		Path:           e.params.Path,
		CreditWindow:   e.params.CreditWindow,
		Events:         e.events,
	})
	if cerr != nil {
		e.setState(StateClosed)
		return cerr
	}
	e.link = link
	e.setState(StateNegotiating)

	if e.params.Duration > 0 {
		e.timer = StartTimer(e.params.Duration, e.events)
		defer e.timer.Stop()
	}

	done := ctx.Done()
	for e.state != StateClosed {
		select {
		case ev := <-e.events:
			if herr := e.handle(ev); herr != nil {
				_ = e.link.Close()
				e.setState(StateClosed)
				return herr
			}
		case <-done:
			// External cancellation: request the close once, then keep
			// consuming events until the transport reports closed.
			done = nil
			e.requestStop()
		}
	}
	return nil
}

// handle dispatches one event. A non-nil error aborts the run.
func (e *Engine) handle(ev Event) error {
	switch ev.Type {
	case EventLinkOpened:
		if e.state != StateNegotiating {
			return nil
		}
		e.setState(StateTransferring)
		if e.params.Role == RoleReceiver {
			return e.link.IssueCredit(e.credit.OnLinkOpen())
		}
		return e.pumpSend()

	case EventCreditAvailable:
		if e.state != StateTransferring || e.params.Role != RoleSender {
			return nil
		}
		return e.pumpSend()

	case EventDeliveryReady:
		if e.state != StateTransferring || e.params.Role != RoleReceiver {
			return nil
		}
		return e.onDelivery(ev)

	case EventAcknowledged:
		if e.params.Role != RoleSender || e.state == StateClosed {
			return nil
		}
		return e.onAcknowledged(ev)

	case EventTimerExpired:
		e.requestStop()
		return nil

	case EventTransportClosed:
		return e.onTransportClosed(ev)
	}
	return nil
}

// pumpSend sends while the transport reports capacity and the target count
// is unreached. Message ids are the 1-based send ordinals, as strings.
func (e *Engine) pumpSend() error {
	for e.link.Capacity() > 0 {
		if e.params.Count > 0 && e.sent >= e.params.Count {
			return nil
		}

		id := strconv.FormatUint(e.sent+1, 10)
		stime := e.now()
		m := &wire.Message{
			ID:       id,
			SendTime: stime,
			Durable:  e.params.Durable,
			Body:     e.body,
		}
		if err := e.link.Send(m); err != nil {
			return fmt.Errorf("sending message %s: %w", id, err)
		}
		e.sent++
		if err := e.out.WriteSent(id, stime); err != nil {
			return err
		}
		if e.batcher.Enabled() && e.batcher.ShouldCommit(e.sent) {
			// Transactions are rejected at construction; no binding
			// reaches this today.
			return ErrTransactionsUnsupported
		}
	}
	return nil
}

// onDelivery processes one complete received message: record, accept,
// replenish credit.
func (e *Engine) onDelivery(ev Event) error {
	m := ev.Message
	if m == nil {
		return fmt.Errorf("%w: empty delivery", ErrProtocolViolation)
	}
	if m.SendTime == 0 {
		return fmt.Errorf("%w: message %q has no send time", ErrProtocolViolation, m.ID)
	}

	rtime := e.now()
	if err := e.out.WriteReceived(m.ID, m.SendTime, rtime); err != nil {
		return err
	}
	if err := e.link.Accept(m.ID); err != nil {
		return fmt.Errorf("accepting delivery %s: %w", m.ID, err)
	}
	e.received++

	grant, err := e.credit.OnDeliveryConsumed()
	if err != nil {
		return err
	}
	if grant > 0 {
		if err := e.link.IssueCredit(grant); err != nil {
			return fmt.Errorf("issuing credit: %w", err)
		}
	}

	if e.params.Count > 0 && e.received >= e.params.Count {
		e.requestStop()
	}
	return nil
}

// onAcknowledged processes one settled send.
func (e *Engine) onAcknowledged(ev Event) error {
	e.accepted++

	if e.params.Settlement {
		decision := e.sampler.OnSettled(e.accepted)
		if err := e.out.WriteSettlement(ev.Tag, e.now(), bool(decision)); err != nil {
			return err
		}
	}

	if e.params.Count > 0 && e.accepted >= e.params.Count {
		e.requestStop()
	}
	return nil
}

// onTransportClosed finishes the run. A peer error condition is fatal
// unless we initiated the close ourselves, in which case the race between
// our close and the peer's is not an error.
func (e *Engine) onTransportClosed(ev Event) error {
	e.setState(StateClosed)
	if e.stopRequested || ev.Err == nil {
		return nil
	}
	if errors.Is(ev.Err, ErrProtocolViolation) || errors.Is(ev.Err, ErrProtocolError) {
		return ev.Err
	}
	return fmt.Errorf("%w: %v", ErrProtocolError, ev.Err)
}

// requestStop begins the drain: close link, session, and connection
// exactly once. The pump then waits for the TransportClosed event.
func (e *Engine) requestStop() {
	if e.stopRequested || e.state == StateClosed {
		return
	}
	e.stopRequested = true
	e.setState(StateDraining)
	e.timer.Stop()
	if err := e.link.Close(); err != nil && e.log != nil {
		e.log.Warnf("closing link: %v", err)
	}
}

func (e *Engine) setState(s State) {
	if e.log != nil && s != e.state {
		e.log.Debugf("state %s -> %s", e.state, s)
	}
	e.state = s
}
