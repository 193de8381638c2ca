package wire

import (
	"encoding/binary"
	"io"
)

// FrameType identifies the payload carried by a frame.
type FrameType uint8

const (
	// FrameAttach requests a link: one role byte followed by the address path.
	FrameAttach FrameType = 1
	// FrameAttachOK confirms a link, echoing the requested path back.
	FrameAttachOK FrameType = 2
	// FrameTransfer carries one encoded Message.
	FrameTransfer FrameType = 3
	// FrameFlow grants the peer a batch of transfer credit.
	FrameFlow FrameType = 4
	// FrameDisposition acknowledges one transfer by its delivery tag.
	FrameDisposition FrameType = 5
	// FrameClose ends the link; a non-empty condition signals an error.
	FrameClose FrameType = 6
)

// String returns the string representation of the frame type.
func (t FrameType) String() string {
	switch t {
	case FrameAttach:
		return "Attach"
	case FrameAttachOK:
		return "AttachOK"
	case FrameTransfer:
		return "Transfer"
	case FrameFlow:
		return "Flow"
	case FrameDisposition:
		return "Disposition"
	case FrameClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the frame type is a known valid type.
func (t FrameType) IsValid() bool {
	return t >= FrameAttach && t <= FrameClose
}

const (
	// lengthPrefixSize is the size of the frame length prefix.
	lengthPrefixSize = 4

	// MaxFrameSize bounds a single frame. Transfers above this are split by
	// the caller; the harness never generates bodies near this limit.
	MaxFrameSize = 16 << 20
)

// Attach link role bytes.
const (
	// AttachRoleSender declares the attaching peer sends transfers.
	AttachRoleSender uint8 = 0
	// AttachRoleReceiver declares the attaching peer receives transfers.
	AttachRoleReceiver uint8 = 1
)

// Frame is one decoded wire frame.
type Frame struct {
	Type FrameType

	// Path is set for Attach and AttachOK.
	Path string
	// Role is set for Attach.
	Role uint8
	// Message is set for Transfer.
	Message *Message
	// Credit is set for Flow.
	Credit uint32
	// Tag is set for Disposition.
	Tag string
	// Condition is set for Close; empty means a clean close.
	Condition string
}

// Encode returns the wire form of the frame, without the length prefix.
func (f *Frame) Encode() []byte {
	buf := []byte{byte(f.Type)}
	switch f.Type {
	case FrameAttach:
		buf = append(buf, f.Role)
		buf = appendString(buf, f.Path)
	case FrameAttachOK:
		buf = appendString(buf, f.Path)
	case FrameTransfer:
		buf = f.Message.Encode(buf)
	case FrameFlow:
		buf = binary.BigEndian.AppendUint32(buf, f.Credit)
	case FrameDisposition:
		buf = appendString(buf, f.Tag)
	case FrameClose:
		buf = appendString(buf, f.Condition)
	}
	return buf
}

// DecodeFrame decodes a frame from data (without the length prefix).
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < 1 {
		return nil, ErrFrameTooShort
	}
	f := &Frame{Type: FrameType(data[0])}
	data = data[1:]

	var err error
	switch f.Type {
	case FrameAttach:
		if len(data) < 1 {
			return nil, ErrFrameTooShort
		}
		f.Role = data[0]
		f.Path, _, err = readString(data[1:])
	case FrameAttachOK:
		f.Path, _, err = readString(data)
	case FrameTransfer:
		f.Message, err = DecodeMessage(data)
	case FrameFlow:
		if len(data) < 4 {
			return nil, ErrFrameTooShort
		}
		f.Credit = binary.BigEndian.Uint32(data)
	case FrameDisposition:
		f.Tag, _, err = readString(data)
	case FrameClose:
		f.Condition, _, err = readString(data)
	default:
		return nil, ErrInvalidFrameType
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// StreamWriter wraps an io.Writer to add length-prefix framing.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter creates a new stream writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteFrame encodes and writes a frame with a 4-byte length prefix.
func (sw *StreamWriter) WriteFrame(f *Frame) error {
	data := f.Encode()

	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))

	if _, err := sw.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := sw.w.Write(data)
	return err
}

// StreamReader wraps an io.Reader to read length-prefixed frames.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader creates a new stream reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadFrame reads and decodes one frame.
// Returns io.EOF when the stream ends cleanly on a frame boundary.
func (sr *StreamReader) ReadFrame() (*Frame, error) {
	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, ErrStreamReadFailed
	}

	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return nil, ErrInvalidLengthPrefix
	}
	if frameLen > MaxFrameSize {
		return nil, ErrFrameTooLong
	}

	data := make([]byte, frameLen)
	if _, err := io.ReadFull(sr.r, data); err != nil {
		return nil, ErrStreamReadFailed
	}

	return DecodeFrame(data)
}
