package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	goamqp "github.com/Azure/go-amqp"
	"github.com/pion/logging"

	"github.com/mqbench/arrow/pkg/arrow"
	"github.com/mqbench/arrow/pkg/wire"
)

// closeTimeout bounds the teardown of link, session, and connection.
const closeTimeout = 5 * time.Second

// link adapts go-amqp's blocking calls to the engine's event loop. One
// internal goroutine (runSender or runReceiver) produces every event, so
// events arrive in order with TransportClosed last.
//
// go-amqp exposes no link credit on the send side; a queue one credit
// window deep stands in for it. Capacity is the queue headroom, and every
// settlement frees a slot and re-announces credit.
type link struct {
	cfg arrow.EstablishConfig
	log logging.LeveledLogger

	conn     *goamqp.Conn
	sender   *goamqp.Sender
	receiver *goamqp.Receiver

	sendQ chan *wire.Message

	// drainWait bounds the post-Close drain of queued sends before the
	// pending blocking call is aborted.
	drainWait time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	deliveryMu sync.Mutex
	deliveries map[string]*goamqp.Message

	closed    atomic.Bool
	closeOnce sync.Once
}

// Capacity reports the send-queue headroom.
func (l *link) Capacity() int {
	if l.sendQ == nil {
		return 0
	}
	return cap(l.sendQ) - len(l.sendQ)
}

// Send queues one message for transmission. The engine never calls Send
// beyond Capacity, so the enqueue cannot block.
func (l *link) Send(m *wire.Message) error {
	select {
	case l.sendQ <- m:
		return nil
	default:
		return errors.New("amqp: send beyond capacity")
	}
}

// IssueCredit is a no-op: go-amqp manages receiver credit itself from the
// window configured at link open.
func (l *link) IssueCredit(int) error {
	return nil
}

// Accept settles the delivery with the given tag.
func (l *link) Accept(tag string) error {
	l.deliveryMu.Lock()
	msg, ok := l.deliveries[tag]
	delete(l.deliveries, tag)
	l.deliveryMu.Unlock()
	if !ok {
		return fmt.Errorf("amqp: no delivery with tag %q", tag)
	}
	return l.receiver.AcceptMessage(l.ctx, msg)
}

// Close begins teardown. The receiver's blocking Receive is aborted
// immediately; the sender gets drainWait to drain queued sends against a
// responsive peer, then its pending Send is aborted too. Either way the
// event goroutine closes link, session, and connection, and reports
// TransportClosed.
func (l *link) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		if l.sendQ != nil {
			close(l.sendQ)
			time.AfterFunc(l.drainWait, l.cancel)
		}
		if l.receiver != nil {
			l.cancel()
		}
	})
	return nil
}

// runSender drains the send queue through the blocking Send call and
// reports each settlement. go-amqp returns from Send once the receiver
// settles the delivery, so completion order is settlement order.
func (l *link) runSender() {
	defer l.cancel()
	l.emit(arrow.Event{Type: arrow.EventLinkOpened})
	l.emit(arrow.Event{Type: arrow.EventCreditAvailable})

	for m := range l.sendQ {
		am := toAMQP(m)
		if err := l.sender.Send(l.ctx, am, nil); err != nil {
			l.teardown()
			if l.closed.Load() {
				l.reportClosed(nil)
			} else {
				l.reportClosed(err)
			}
			return
		}
		l.emit(arrow.Event{Type: arrow.EventAcknowledged, Tag: m.ID})
		l.emit(arrow.Event{Type: arrow.EventCreditAvailable})
	}

	// Queue closed: clean shutdown.
	l.teardown()
	l.reportClosed(nil)
}

// runReceiver pumps deliveries until the run ends.
func (l *link) runReceiver() {
	defer l.cancel()
	l.deliveries = make(map[string]*goamqp.Message)
	l.emit(arrow.Event{Type: arrow.EventLinkOpened})

	for {
		msg, err := l.receiver.Receive(l.ctx, nil)
		if err != nil {
			l.teardown()
			if l.closed.Load() {
				l.reportClosed(nil)
			} else {
				l.reportClosed(err)
			}
			return
		}

		wm, err := fromAMQP(msg)
		if err != nil {
			l.teardown()
			l.reportClosed(err)
			return
		}

		l.deliveryMu.Lock()
		l.deliveries[wm.ID] = msg
		l.deliveryMu.Unlock()

		l.emit(arrow.Event{Type: arrow.EventDeliveryReady, Message: wm})
	}
}

// teardown closes link, session, and connection in order. Closing the
// connection closes everything beneath it, so link-level errors are only
// logged.
func (l *link) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if l.sender != nil {
		if err := l.sender.Close(ctx); err != nil && l.log != nil {
			l.log.Debugf("closing sender link: %v", err)
		}
	}
	if l.receiver != nil {
		if err := l.receiver.Close(ctx); err != nil && l.log != nil {
			l.log.Debugf("closing receiver link: %v", err)
		}
	}
	if err := l.conn.Close(); err != nil && l.log != nil {
		l.log.Debugf("closing connection: %v", err)
	}
}

func (l *link) emit(ev arrow.Event) {
	l.cfg.Events <- ev
}

func (l *link) reportClosed(err error) {
	l.emit(arrow.Event{Type: arrow.EventTransportClosed, Err: err})
}

// toAMQP maps the engine's message onto the AMQP 1.0 shape the original
// harness implementations agree on: string message id, one data section,
// a SendTime application property in epoch milliseconds, and the durable
// header bit.
func toAMQP(m *wire.Message) *goamqp.Message {
	am := &goamqp.Message{
		Data:       [][]byte{m.Body},
		Properties: &goamqp.MessageProperties{MessageID: m.ID},
		ApplicationProperties: map[string]any{
			"SendTime": m.SendTime,
		},
	}
	if m.Durable {
		am.Header = &goamqp.MessageHeader{Durable: true}
	}
	return am
}

// fromAMQP validates and converts a delivery. Missing or misshapen ids and
// SendTime properties are protocol violations; the engine never guesses.
func fromAMQP(msg *goamqp.Message) (*wire.Message, error) {
	m := &wire.Message{Body: msg.GetData()}

	if msg.Properties == nil || msg.Properties.MessageID == nil {
		return nil, fmt.Errorf("%w: delivery has no message id", arrow.ErrProtocolViolation)
	}
	switch id := msg.Properties.MessageID.(type) {
	case string:
		m.ID = id
	case uint64:
		m.ID = fmt.Sprintf("%d", id)
	case int64:
		m.ID = fmt.Sprintf("%d", id)
	default:
		return nil, fmt.Errorf("%w: unexpected message id type %T", arrow.ErrProtocolViolation, id)
	}

	raw, ok := msg.ApplicationProperties["SendTime"]
	if !ok {
		return nil, fmt.Errorf("%w: delivery %s has no SendTime property", arrow.ErrProtocolViolation, m.ID)
	}
	switch t := raw.(type) {
	case int64:
		m.SendTime = t
	case uint64:
		m.SendTime = int64(t)
	case int32:
		m.SendTime = int64(t)
	default:
		return nil, fmt.Errorf("%w: unexpected SendTime type %T", arrow.ErrProtocolViolation, raw)
	}

	if msg.Header != nil {
		m.Durable = msg.Header.Durable
	}
	return m, nil
}
