// Package wire implements the framed wire format used by the native
// transport binding: length-prefixed frames carrying link attach/confirm,
// transfers, credit flow, dispositions, and close.
package wire

import (
	"encoding/binary"
)

// Message is one transfer payload. The body is an opaque byte string
// (the harness fills it with ASCII 'x'); SendTime is milliseconds since
// the Unix epoch, stamped by the sender immediately before transmission.
type Message struct {
	ID       string
	SendTime int64
	Durable  bool
	Body     []byte
}

// Encode appends the wire form of the message to buf and returns the result.
func (m *Message) Encode(buf []byte) []byte {
	buf = appendString(buf, m.ID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.SendTime))
	if m.Durable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Body)))
	return append(buf, m.Body...)
}

// DecodeMessage decodes a transfer payload. A payload that ends before its
// declared body length is a partial delivery and is rejected.
func DecodeMessage(data []byte) (*Message, error) {
	m := &Message{}

	id, rest, err := readString(data)
	if err != nil {
		return nil, err
	}
	m.ID = id

	if len(rest) < 9 {
		return nil, ErrFrameTooShort
	}
	m.SendTime = int64(binary.BigEndian.Uint64(rest[:8]))
	m.Durable = rest[8] == 1
	rest = rest[9:]

	if len(rest) < 4 {
		return nil, ErrFrameTooShort
	}
	bodyLen := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	if uint32(len(rest)) < bodyLen {
		return nil, ErrMessageTruncated
	}
	m.Body = make([]byte, bodyLen)
	copy(m.Body, rest[:bodyLen])

	if m.SendTime == 0 {
		return nil, ErrMissingSendTime
	}
	return m, nil
}

// appendString appends a 16-bit length-prefixed string.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// readString reads a 16-bit length-prefixed string and returns the remainder.
func readString(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, ErrFrameTooShort
	}
	n := binary.BigEndian.Uint16(data[:2])
	data = data[2:]
	if len(data) < int(n) {
		return "", nil, ErrFrameTooShort
	}
	return string(data[:n]), data[n:], nil
}
