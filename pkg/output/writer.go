// Package output emits the arrow's timing records: one ASCII line per
// transfer or settlement event, buffered in memory so the transfer loop
// never blocks on stdout line by line.
package output

import (
	"bufio"
	"io"
	"strconv"
	"sync"
)

// defaultBufferSize is sized so a full credit window of records fits
// between flushes at typical line lengths.
const defaultBufferSize = 64 * 1024

// Writer writes transfer and settlement records.
//
// Record formats, all times integer milliseconds since the Unix epoch:
//
//	<id>,<send-time>            sent transfer
//	<id>,<send-time>,<recv-time> received transfer
//	S<tag>,<settle-time>        sampled settlement
//	s<tag>,<settle-time>        unsampled settlement
//
// Writes are buffered; Flush must run on every exit path so no record
// is lost.
type Writer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	buf []byte
}

// NewWriter creates a Writer over w (normally os.Stdout).
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   bufio.NewWriterSize(w, defaultBufferSize),
		buf: make([]byte, 0, 64),
	}
}

// WriteSent records one sent transfer.
func (o *Writer) WriteSent(id string, sendTime int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := o.buf[:0]
	b = append(b, id...)
	b = append(b, ',')
	b = strconv.AppendInt(b, sendTime, 10)
	b = append(b, '\n')
	o.buf = b
	_, err := o.w.Write(b)
	return err
}

// WriteReceived records one received transfer.
func (o *Writer) WriteReceived(id string, sendTime, receiveTime int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := o.buf[:0]
	b = append(b, id...)
	b = append(b, ',')
	b = strconv.AppendInt(b, sendTime, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, receiveTime, 10)
	b = append(b, '\n')
	o.buf = b
	_, err := o.w.Write(b)
	return err
}

// WriteSettlement records one settlement. Sampled settlements carry an 'S'
// prefix and feed live latency displays downstream; unsampled ones carry
// 's' and contribute to summary statistics only.
func (o *Writer) WriteSettlement(tag string, settleTime int64, sampled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := o.buf[:0]
	if sampled {
		b = append(b, 'S')
	} else {
		b = append(b, 's')
	}
	b = append(b, tag...)
	b = append(b, ',')
	b = strconv.AppendInt(b, settleTime, 10)
	b = append(b, '\n')
	o.buf = b
	_, err := o.w.Write(b)
	return err
}

// Flush writes any buffered records through to the underlying writer.
func (o *Writer) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Flush()
}
