package network

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smnsjas/go-brokerauth/sasl"
)

// HandshakeState tracks the SASL handshake. Transitions only move
// forward; Complete and Failed are terminal.
type HandshakeState int

const (
	// StateInitial is the state before the first step. The client speaks
	// first, so no challenge is consumed leaving it.
	StateInitial HandshakeState = iota

	// StateInProgress covers the challenge/response rounds.
	StateInProgress

	// StateComplete is terminal success.
	StateComplete

	// StateFailed is terminal failure; it absorbs every later step.
	StateFailed
)

func (s HandshakeState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateInProgress:
		return "in-progress"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SaslAuthenticator drives the multi-round SASL handshake for exactly
// one connection. Its Step is invoked only from that connection's
// readiness notifications and never concurrently; it performs at most
// one network operation per call and never blocks.
type SaslAuthenticator struct {
	engine    sasl.Engine
	transport TransportLayer
	identity  *sasl.IdentityContext
	logger    *slog.Logger
	connID    string

	state    HandshakeState
	err      error
	interest Interest
	outbound *Send
	inbound  *Receive
	closed   bool
}

// NewSaslAuthenticator binds engine to transport for one connection.
// identity is borrowed read-only for the handshake's privileged
// operations. logger may be nil; a discard-free default is used.
func NewSaslAuthenticator(engine sasl.Engine, transport TransportLayer, identity *sasl.IdentityContext, logger *slog.Logger) *SaslAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaslAuthenticator{
		engine:    engine,
		transport: transport,
		identity:  identity,
		logger:    logger,
		connID:    uuid.NewString(),
		state:     StateInitial,
		// the client speaks first, so the loop should wait for writability
		interest: InterestWrite,
	}
}

// Step advances the handshake by at most one network operation. canRead
// and canWrite say which readiness the event loop observed; with both
// false no I/O is attempted and the previously required interest is
// returned. The returned Interest says what to wait for before the next
// call; InterestNone means the handshake finished (check IsComplete).
func (a *SaslAuthenticator) Step(canRead, canWrite bool) (Interest, error) {
	switch a.state {
	case StateComplete:
		return InterestNone, nil
	case StateFailed:
		return InterestNone, a.err
	}

	if !canRead && !canWrite {
		// spurious wakeup: keep state untouched
		return a.interest, nil
	}

	// Outbound progress always comes before new inbound work; a
	// half-flushed token must not be overtaken.
	if a.outbound != nil {
		if _, err := a.outbound.WriteTo(a.transport); err != nil {
			return a.fail(err)
		}
		if !a.outbound.Completed() {
			return a.wait(InterestWrite)
		}
		a.outbound = nil
	}

	if a.engine.Complete() {
		a.state = StateComplete
		a.logger.Debug("sasl handshake complete",
			"conn", a.connID, "mechanism", a.engine.Mechanism(), "principal", a.Principal().Name)
		return a.wait(InterestNone)
	}

	var challenge []byte
	firstRound := false

	if a.state == StateInProgress && canRead {
		if a.inbound == nil {
			a.inbound = NewReceive()
		}
		n, err := a.inbound.ReadFrom(a.transport)
		if err != nil {
			return a.fail(err)
		}
		if n == 0 || !a.inbound.Complete() {
			// transport-level starvation: wait for more bytes
			return a.wait(InterestRead)
		}
		challenge = a.inbound.Payload()
		a.inbound = nil
	} else if a.state == StateInitial {
		a.state = StateInProgress
		firstRound = true
	}

	if challenge == nil && !firstRound {
		// an empty challenge is only valid on the first round; anything
		// later means the server's next message has not arrived yet
		return a.wait(InterestRead)
	}

	if !a.engine.Complete() {
		var token []byte
		err := a.identity.ActAs(func() error {
			var evalErr error
			token, evalErr = a.engine.EvaluateChallenge(challenge)
			return evalErr
		})
		if errors.Is(err, sasl.ErrTokenUnderflow) {
			// protocol-level underrun, distinct from starvation above
			return a.wait(InterestRead)
		}
		if err != nil {
			return a.fail(err)
		}
		if token != nil {
			a.outbound = NewSend(token)
			if !canWrite {
				return a.wait(InterestWrite)
			}
			if _, err := a.outbound.WriteTo(a.transport); err != nil {
				return a.fail(err)
			}
			if !a.outbound.Completed() {
				return a.wait(InterestWrite)
			}
			a.outbound = nil
		}
	}

	if a.engine.Complete() && a.outbound == nil {
		// evaluation finished the exchange and nothing is left in flight
		a.state = StateComplete
		a.logger.Debug("sasl handshake complete",
			"conn", a.connID, "mechanism", a.engine.Mechanism(), "principal", a.Principal().Name)
		return a.wait(InterestNone)
	}

	// the next round always needs a server message
	return a.wait(InterestRead)
}

// IsComplete reports success. Both conditions are required: the engine
// can self-report completion one round before the state machine has
// flushed the final outbound frame.
func (a *SaslAuthenticator) IsComplete() bool {
	return a.engine.Complete() && a.state == StateComplete
}

// State returns the current handshake state.
func (a *SaslAuthenticator) State() HandshakeState {
	return a.state
}

// Principal returns the resolved peer identity, or the anonymous
// placeholder for mechanisms without mutual identity exchange.
func (a *SaslAuthenticator) Principal() sasl.Identity {
	if r, ok := a.engine.(sasl.PrincipalReporter); ok {
		return r.Principal()
	}
	return sasl.Anonymous()
}

// Close releases the engine's resources. It is idempotent and never
// fails the caller: a release failure is logged and swallowed.
func (a *SaslAuthenticator) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if err := a.engine.Close(); err != nil {
		a.logger.Warn("sasl engine release failed",
			"conn", a.connID, "mechanism", a.engine.Mechanism(), "error", err)
	}
}

func (a *SaslAuthenticator) wait(i Interest) (Interest, error) {
	a.interest = i
	return i, nil
}

func (a *SaslAuthenticator) fail(err error) (Interest, error) {
	a.state = StateFailed
	a.err = &HandshakeError{
		Mechanism: a.engine.Mechanism(),
		Host:      a.identity.Host,
		Hint:      handshakeHint(err, a.identity.Host),
		Err:       err,
	}
	a.interest = InterestNone
	a.logger.Debug("sasl handshake failed",
		"conn", a.connID, "mechanism", a.engine.Mechanism(), "error", a.err)
	return InterestNone, a.err
}
