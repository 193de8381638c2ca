package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	goamqp "github.com/Azure/go-amqp"

	"github.com/mqbench/arrow/pkg/arrow"
	"github.com/mqbench/arrow/pkg/wire"
)

func TestEstablishRejectsUnsupportedModes(t *testing.T) {
	c := NewConnector(Config{})

	t.Run("ServerConnection", func(t *testing.T) {
		_, err := c.Establish(context.Background(), arrow.EstablishConfig{
			Role:           arrow.RoleReceiver,
			ConnectionMode: arrow.ConnectionServer,
			ChannelMode:    arrow.ChannelActive,
			Events:         make(chan arrow.Event, 1),
		})
		if !errors.Is(err, arrow.ErrUnsupportedMode) {
			t.Fatalf("err = %v, want ErrUnsupportedMode", err)
		}
	})

	t.Run("PassiveChannel", func(t *testing.T) {
		_, err := c.Establish(context.Background(), arrow.EstablishConfig{
			Role:           arrow.RoleSender,
			ConnectionMode: arrow.ConnectionClient,
			ChannelMode:    arrow.ChannelPassive,
			Events:         make(chan arrow.Event, 1),
		})
		if !errors.Is(err, arrow.ErrUnsupportedMode) {
			t.Fatalf("err = %v, want ErrUnsupportedMode", err)
		}
	})
}

func TestMessageMapping(t *testing.T) {
	in := &wire.Message{
		ID:       "42",
		SendTime: 1700000000000,
		Durable:  true,
		Body:     []byte("xxxx"),
	}

	am := toAMQP(in)
	if am.Properties.MessageID != "42" {
		t.Errorf("message id = %v, want 42", am.Properties.MessageID)
	}
	if am.ApplicationProperties["SendTime"] != int64(1700000000000) {
		t.Errorf("SendTime property = %v", am.ApplicationProperties["SendTime"])
	}
	if am.Header == nil || !am.Header.Durable {
		t.Error("durable header not set")
	}

	out, err := fromAMQP(am)
	if err != nil {
		t.Fatalf("fromAMQP: %v", err)
	}
	if out.ID != in.ID || out.SendTime != in.SendTime || !out.Durable {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if string(out.Body) != "xxxx" {
		t.Errorf("body = %q, want xxxx", out.Body)
	}
}

func TestMessageMappingNumericID(t *testing.T) {
	am := &goamqp.Message{
		Data:                  [][]byte{[]byte("x")},
		Properties:            &goamqp.MessageProperties{MessageID: uint64(7)},
		ApplicationProperties: map[string]any{"SendTime": int64(123)},
	}
	m, err := fromAMQP(am)
	if err != nil {
		t.Fatalf("fromAMQP: %v", err)
	}
	if m.ID != "7" {
		t.Errorf("id = %q, want 7", m.ID)
	}
}

func TestMessageMappingViolations(t *testing.T) {
	cases := []struct {
		name string
		msg  *goamqp.Message
	}{
		{
			name: "NoMessageID",
			msg: &goamqp.Message{
				ApplicationProperties: map[string]any{"SendTime": int64(1)},
			},
		},
		{
			name: "BadIDType",
			msg: &goamqp.Message{
				Properties:            &goamqp.MessageProperties{MessageID: 3.14},
				ApplicationProperties: map[string]any{"SendTime": int64(1)},
			},
		},
		{
			name: "NoSendTime",
			msg: &goamqp.Message{
				Properties: &goamqp.MessageProperties{MessageID: "1"},
			},
		},
		{
			name: "BadSendTimeType",
			msg: &goamqp.Message{
				Properties:            &goamqp.MessageProperties{MessageID: "1"},
				ApplicationProperties: map[string]any{"SendTime": "later"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := fromAMQP(c.msg); !errors.Is(err, arrow.ErrProtocolViolation) {
				t.Fatalf("err = %v, want ErrProtocolViolation", err)
			}
		})
	}
}

func TestCloseAbortsSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{
		sendQ:     make(chan *wire.Message, 1),
		drainWait: 10 * time.Millisecond,
		ctx:       ctx,
		cancel:    cancel,
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The queue is closed right away so the drain sees the end of input.
	select {
	case _, ok := <-l.sendQ:
		if ok {
			t.Fatal("send queue not closed")
		}
	default:
		t.Fatal("send queue still open")
	}

	// A Send blocked against an unresponsive peer holds this context; it
	// must be canceled once the drain allowance passes.
	select {
	case <-l.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after drain allowance")
	}
}

func TestCloseAbortsReceiver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{
		receiver: &goamqp.Receiver{},
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-l.ctx.Done():
	default:
		t.Fatal("context not canceled immediately")
	}
}

func TestSendBeyondCapacity(t *testing.T) {
	l := &link{sendQ: make(chan *wire.Message, 1)}
	if err := l.Send(&wire.Message{ID: "1"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := l.Send(&wire.Message{ID: "2"}); err == nil {
		t.Fatal("Send beyond capacity succeeded")
	}
	if l.Capacity() != 0 {
		t.Errorf("capacity = %d, want 0", l.Capacity())
	}
}
