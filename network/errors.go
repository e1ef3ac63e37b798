package network

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPeerClosed reports that the peer closed the connection. During a
// handshake it is terminal: the authenticator transitions to Failed with
// a HandshakeError wrapping it.
var ErrPeerClosed = errors.New("network: connection closed by peer")

// ConfigError reports malformed or inconsistent TLS/key-material
// configuration. It is fatal at setup time and never retried.
type ConfigError struct {
	// Field names the offending configuration option.
	Field string

	// Reason says what is wrong with it.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("network: config %s: %s", e.Field, e.Reason)
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HandshakeError reports a terminal authentication failure. The
// authenticator that produced it has transitioned to Failed and will
// make no further progress; the caller must close the connection.
type HandshakeError struct {
	// Mechanism is the SASL mechanism that was negotiating.
	Mechanism string

	// Host is the peer the handshake targeted.
	Host string

	// Hint carries actionable advice when the root cause matches a known
	// pattern. May be empty.
	Hint string

	// Err is the underlying failure.
	Err error
}

func (e *HandshakeError) Error() string {
	msg := fmt.Sprintf("network: %s handshake with %s failed: %v", e.Mechanism, e.Host, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// IsHandshakeError returns true if the error is a HandshakeError.
func IsHandshakeError(err error) bool {
	var he *HandshakeError
	return errors.As(err, &he)
}

// handshakeHint inspects a failure for known patterns and returns advice
// the operator can act on. An unregistered service principal usually
// means the client resolved the broker by something other than the name
// its principal is registered under.
func handshakeHint(err error, host string) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	if strings.Contains(text, "Server not found in Kerberos database") ||
		strings.Contains(text, "UNKNOWN_SERVER") {
		return fmt.Sprintf("the service principal for %s may not be registered with the KDC; "+
			"check that the client connects using the broker's FQDN", host)
	}
	if strings.Contains(text, "no such host") {
		return fmt.Sprintf("%s did not resolve; check DNS or the configured bootstrap address", host)
	}
	return ""
}
