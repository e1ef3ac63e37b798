package network

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestConfigError verifies formatting and detection through wrapping.
func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: ConfigKeystoreLocation, Reason: "keystore is required in server mode"}

	if !strings.Contains(err.Error(), "keystore_location") {
		t.Errorf("error = %q, want it to name the offending option", err)
	}
	if !IsConfigError(err) {
		t.Error("IsConfigError = false for a ConfigError")
	}
	if !IsConfigError(fmt.Errorf("setup: %w", err)) {
		t.Error("IsConfigError = false for a wrapped ConfigError")
	}
	if IsConfigError(errors.New("other")) {
		t.Error("IsConfigError = true for an unrelated error")
	}
}

// TestHandshakeError verifies formatting, unwrapping and hint inclusion.
func TestHandshakeError(t *testing.T) {
	cause := errors.New("KRB-ERROR: Server not found in Kerberos database")
	err := &HandshakeError{
		Mechanism: "GSSAPI",
		Host:      "broker1.example.com",
		Hint:      handshakeHint(cause, "broker1.example.com"),
		Err:       cause,
	}

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !IsHandshakeError(err) {
		t.Error("IsHandshakeError = false for a HandshakeError")
	}
	msg := err.Error()
	for _, want := range []string{"GSSAPI", "broker1.example.com", "FQDN"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error = %q, want it to contain %q", msg, want)
		}
	}
}

// TestHandshakeHint verifies the known failure patterns and that
// ordinary failures carry no hint.
func TestHandshakeHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unregistered service principal",
			err:  errors.New("Server not found in Kerberos database"),
			want: "FQDN",
		},
		{
			name: "unknown server code",
			err:  errors.New("KDC returned UNKNOWN_SERVER"),
			want: "FQDN",
		},
		{
			name: "dns failure",
			err:  errors.New("lookup broker1: no such host"),
			want: "DNS",
		},
		{
			name: "ordinary failure",
			err:  errors.New("bad proof"),
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := handshakeHint(tt.err, "broker1.example.com")
			if tt.want == "" {
				if hint != "" {
					t.Errorf("hint = %q, want empty", hint)
				}
				return
			}
			if !strings.Contains(hint, tt.want) {
				t.Errorf("hint = %q, want it to mention %q", hint, tt.want)
			}
		})
	}
}

// TestInterest_String verifies the interest names used in logs and
// timeouts.
func TestInterest_String(t *testing.T) {
	tests := []struct {
		interest Interest
		want     string
	}{
		{InterestNone, "none"},
		{InterestRead, "read"},
		{InterestWrite, "write"},
	}
	for _, tt := range tests {
		if got := tt.interest.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.interest, got, tt.want)
		}
	}
}
