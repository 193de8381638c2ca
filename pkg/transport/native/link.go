package native

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"

	"github.com/mqbench/arrow/pkg/arrow"
	"github.com/mqbench/arrow/pkg/wire"
)

// link is the single transfer channel of a native run. The engine's pump
// goroutine is the only caller of Send, IssueCredit, Accept, and Close;
// one internal goroutine (runClient or runServer, continuing into
// readLoop) produces all transport events, so events arrive on the
// engine's channel in wire order with TransportClosed last.
type link struct {
	cfg arrow.EstablishConfig
	log logging.LeveledLogger

	listener net.Listener

	// attachTimeout bounds the handshake of each accepted connection so a
	// silent probe cannot block the real peer. Zero disables the deadline.
	attachTimeout time.Duration

	connMu sync.Mutex
	conn   net.Conn
	reader *wire.StreamReader
	writer *wire.StreamWriter

	writeMu sync.Mutex

	capacity atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
}

func newLink(cfg arrow.EstablishConfig, log logging.LeveledLogger) *link {
	return &link{cfg: cfg, log: log}
}

// Capacity reports the send credit granted by the peer and not yet used.
func (l *link) Capacity() int {
	return int(l.capacity.Load())
}

// Send writes one transfer frame and consumes one unit of capacity.
func (l *link) Send(m *wire.Message) error {
	if err := l.writeFrame(&wire.Frame{Type: wire.FrameTransfer, Message: m}); err != nil {
		return err
	}
	l.capacity.Add(-1)
	return nil
}

// IssueCredit grants the peer n more transfers.
func (l *link) IssueCredit(n int) error {
	return l.writeFrame(&wire.Frame{Type: wire.FrameFlow, Credit: uint32(n)})
}

// Accept acknowledges one delivery.
func (l *link) Accept(tag string) error {
	return l.writeFrame(&wire.Frame{Type: wire.FrameDisposition, Tag: tag})
}

// Close tears down the link and, in server mode, stops listening.
// Completion is reported by the TransportClosed event from the read loop.
func (l *link) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		// Best effort: tell the peer this is a clean close.
		_ = l.writeFrame(&wire.Frame{Type: wire.FrameClose})
		l.closeConn()
		if l.listener != nil {
			_ = l.listener.Close()
		}
	})
	return nil
}

// runClient negotiates over an established outbound connection, then
// pumps events until the connection ends.
func (l *link) runClient(conn net.Conn) {
	l.adopt(conn)
	if err := l.negotiate(); err != nil {
		l.closeConn()
		l.reportClosed(err)
		return
	}
	l.emit(arrow.Event{Type: arrow.EventLinkOpened})
	l.readLoop()
}

// runServer accepts inbound connections until one negotiates a link.
// Connections that close or error before negotiating are probes (for
// example a harness checking that we are listening): they are discarded
// silently and never surfaced as engine activity or failures.
func (l *link) runServer() {
	defer func() { _ = l.listener.Close() }()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			// Listener closed, either by Close or by a bind-level fault.
			if l.closed.Load() {
				l.reportClosed(nil)
			} else {
				l.reportClosed(fmt.Errorf("%w: %v", arrow.ErrListenFailure, err))
			}
			return
		}

		l.adopt(conn)
		if l.attachTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(l.attachTimeout))
		}
		if err := l.negotiate(); err != nil {
			if l.closed.Load() {
				l.closeConn()
				l.reportClosed(nil)
				return
			}
			if l.log != nil {
				l.log.Debugf("ignoring probe connection from %s: %v", conn.RemoteAddr(), err)
			}
			l.closeConn()
			continue
		}
		_ = conn.SetReadDeadline(time.Time{})

		l.emit(arrow.Event{Type: arrow.EventLinkOpened})
		l.readLoop()
		return
	}
}

// adopt installs conn as the single connection of the run.
func (l *link) adopt(conn net.Conn) {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	l.conn = conn
	l.reader = wire.NewStreamReader(conn)
	l.writer = wire.NewStreamWriter(conn)
}

// negotiate performs the attach handshake in the configured channel mode.
func (l *link) negotiate() error {
	if l.cfg.ChannelMode == arrow.ChannelActive {
		return l.initiateAttach()
	}
	return l.awaitAttach()
}

// initiateAttach opens the link toward the peer: send the attach with our
// role and path, wait for the confirmation.
func (l *link) initiateAttach() error {
	role := wire.AttachRoleSender
	if l.cfg.Role == arrow.RoleReceiver {
		role = wire.AttachRoleReceiver
	}
	err := l.writeFrame(&wire.Frame{Type: wire.FrameAttach, Role: role, Path: l.cfg.Path})
	if err != nil {
		return fmt.Errorf("sending attach: %w", err)
	}

	f, err := l.reader.ReadFrame()
	if err != nil {
		return fmt.Errorf("awaiting attach confirmation: %w", err)
	}
	if f.Type != wire.FrameAttachOK {
		return fmt.Errorf("%w: unexpected %s during attach", arrow.ErrProtocolViolation, f.Type)
	}
	return nil
}

// awaitAttach waits for the peer to open the link and confirms it,
// mirroring the peer's requested path back. It never originates the link.
func (l *link) awaitAttach() error {
	f, err := l.reader.ReadFrame()
	if err != nil {
		return fmt.Errorf("awaiting attach: %w", err)
	}
	if f.Type != wire.FrameAttach {
		return fmt.Errorf("%w: unexpected %s before attach", arrow.ErrProtocolViolation, f.Type)
	}
	if err := l.writeFrame(&wire.Frame{Type: wire.FrameAttachOK, Path: f.Path}); err != nil {
		return fmt.Errorf("confirming attach: %w", err)
	}
	return nil
}

// readLoop turns incoming frames into engine events until the connection
// ends, then reports TransportClosed exactly once.
func (l *link) readLoop() {
	for {
		f, err := l.reader.ReadFrame()
		if err != nil {
			if l.closed.Load() || errors.Is(err, io.EOF) {
				l.reportClosed(nil)
			} else {
				l.reportClosed(fmt.Errorf("%w: %v", arrow.ErrProtocolViolation, err))
			}
			return
		}

		switch f.Type {
		case wire.FrameTransfer:
			l.emit(arrow.Event{Type: arrow.EventDeliveryReady, Message: f.Message})
		case wire.FrameFlow:
			l.capacity.Add(int64(f.Credit))
			l.emit(arrow.Event{Type: arrow.EventCreditAvailable})
		case wire.FrameDisposition:
			l.emit(arrow.Event{Type: arrow.EventAcknowledged, Tag: f.Tag})
		case wire.FrameClose:
			l.closeConn()
			if f.Condition != "" {
				l.reportClosed(fmt.Errorf("%w: %s", arrow.ErrProtocolError, f.Condition))
			} else {
				l.reportClosed(nil)
			}
			return
		default:
			l.closeConn()
			l.reportClosed(fmt.Errorf("%w: unexpected %s frame", arrow.ErrProtocolViolation, f.Type))
			return
		}
	}
}

func (l *link) writeFrame(f *wire.Frame) error {
	l.connMu.Lock()
	writer := l.writer
	l.connMu.Unlock()
	if writer == nil {
		return errors.New("native: no connection")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return writer.WriteFrame(f)
}

func (l *link) closeConn() {
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
	}
}

// emit delivers one event to the engine. The engine consumes events until
// it has seen TransportClosed, and this goroutine emits TransportClosed
// last, so a blocking send cannot wedge a healthy run.
func (l *link) emit(ev arrow.Event) {
	l.cfg.Events <- ev
}

func (l *link) reportClosed(err error) {
	l.emit(arrow.Event{Type: arrow.EventTransportClosed, Err: err})
}
