package network

import "encoding/binary"

// Send flushes exactly one outbound length-prefixed frame across any
// number of non-blocking writes.
type Send struct {
	buf     []byte
	written int
}

// NewSend frames payload for sending.
func NewSend(payload []byte) *Send {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return &Send{buf: buf}
}

// WriteTo pushes as much of the frame as the transport will take and
// returns how many bytes moved this call.
func (s *Send) WriteTo(t TransportLayer) (int, error) {
	if s.Completed() {
		return 0, nil
	}
	n, err := t.Write(s.buf[s.written:])
	s.written += n
	return n, err
}

// Completed reports whether the whole frame has been flushed.
func (s *Send) Completed() bool {
	return s.written == len(s.buf)
}
