// Package network secures a single connection to a broker before
// application traffic flows: a non-blocking SASL handshake state machine
// driven by the caller's event loop, the length-prefixed framing it
// speaks, and a TLS factory that turns keystore/truststore configuration
// into per-connection TLS engines.
package network

// Interest is the I/O readiness the caller's event loop should wait for
// before stepping the handshake again.
type Interest int

const (
	// InterestNone means the handshake needs no further I/O.
	InterestNone Interest = iota

	// InterestRead means the handshake is waiting for peer bytes.
	InterestRead

	// InterestWrite means the handshake has bytes to flush.
	InterestWrite
)

func (i Interest) String() string {
	switch i {
	case InterestNone:
		return "none"
	case InterestRead:
		return "read"
	case InterestWrite:
		return "write"
	default:
		return "unknown"
	}
}
