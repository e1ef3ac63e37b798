// Package sasl provides the client-side SASL mechanism engines used to
// authenticate a broker connection, together with the credential callback
// resolver the engines raise queries through.
//
// # Supported Mechanisms
//
//   - PLAIN: username/password in the clear (use only over TLS)
//   - SCRAM-SHA-256 / SCRAM-SHA-512: salted challenge-response
//     (via github.com/xdg-go/scram)
//   - GSSAPI: Kerberos v5, via gokrb5 (pure Go) or the go-krb5 fork
//
// # Engine Contract
//
// An Engine is bound to exactly one connection and is not safe for
// concurrent use. The connection's authenticator feeds it one server
// challenge per round and transports whatever token it produces; the
// engine never touches the network itself.
package sasl

import "errors"

// ErrTokenUnderflow reports that a challenge was structurally truncated:
// evaluation needs more bytes than the frame delivered. It is a protocol
// buffer underrun, deliberately distinct from transport-level starvation
// (zero bytes readable), even though callers answer both by waiting for
// more data.
var ErrTokenUnderflow = errors.New("sasl: challenge truncated, need more bytes")

// Engine implements the client side of one SASL mechanism for a single
// connection.
type Engine interface {
	// Mechanism returns the SASL mechanism name (e.g. "GSSAPI").
	Mechanism() string

	// EvaluateChallenge processes a server challenge and returns the
	// response token to send, or nil when the mechanism has nothing more
	// to say this round. An empty challenge is valid only on the first
	// round, where the client speaks first.
	//
	// Returns ErrTokenUnderflow (possibly wrapped) when the challenge is
	// truncated; any other error is terminal for the handshake.
	EvaluateChallenge(challenge []byte) ([]byte, error)

	// Complete returns true once the mechanism has established the
	// security context. The last response token may still be in flight
	// when this flips to true.
	Complete() bool

	// Close releases resources held by the mechanism (e.g. Kerberos
	// client sessions). Implementations must tolerate repeated calls.
	Close() error
}

// PrincipalReporter is an optional interface for engines that resolve a
// peer identity during the exchange. Engines that do not perform mutual
// identity exchange simply don't implement it, and callers fall back to
// the anonymous placeholder.
type PrincipalReporter interface {
	Principal() Identity
}
