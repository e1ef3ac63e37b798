package network

import (
	"encoding/binary"
	"fmt"
)

// Frames larger than this are rejected as corrupt rather than buffered.
const maxReceiveSize = 512 * 1024

// Receive accumulates exactly one inbound length-prefixed frame across
// any number of non-blocking reads. The wire format is a 4-byte
// big-endian payload length followed by the payload.
type Receive struct {
	header      [4]byte
	headerRead  int
	payload     []byte
	payloadRead int
}

// NewReceive returns an empty frame accumulator.
func NewReceive() *Receive {
	return &Receive{}
}

// ReadFrom pulls whatever bytes the transport has into the frame and
// returns how many it consumed this call. Partial reads are normal;
// call again when the transport is readable until Complete reports true.
// A read error that arrives together with the frame's final bytes does
// not fail the frame: the completed frame is delivered and the error
// resurfaces on the next read.
func (r *Receive) ReadFrom(t TransportLayer) (int, error) {
	total := 0
	var readErr error

	for r.headerRead < len(r.header) {
		n, err := t.Read(r.header[r.headerRead:])
		r.headerRead += n
		total += n
		if err != nil {
			readErr = err
			break
		}
		if n == 0 {
			return total, nil
		}
	}
	if r.headerRead < len(r.header) {
		return total, readErr
	}

	if r.payload == nil {
		size := binary.BigEndian.Uint32(r.header[:])
		if size > maxReceiveSize {
			return total, fmt.Errorf("network: frame of %d bytes exceeds limit of %d", size, maxReceiveSize)
		}
		r.payload = make([]byte, size)
	}

	for r.payloadRead < len(r.payload) && readErr == nil {
		n, err := t.Read(r.payload[r.payloadRead:])
		r.payloadRead += n
		total += n
		if err != nil {
			readErr = err
			break
		}
		if n == 0 {
			return total, nil
		}
	}
	if r.Complete() {
		return total, nil
	}
	return total, readErr
}

// Complete reports whether a full frame has been accumulated.
func (r *Receive) Complete() bool {
	return r.payload != nil && r.payloadRead == len(r.payload)
}

// Payload returns the frame payload. Valid only once Complete is true.
func (r *Receive) Payload() []byte {
	return r.payload
}
