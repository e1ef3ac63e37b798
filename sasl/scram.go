package sasl

import (
	"errors"
	"fmt"

	"github.com/xdg-go/scram"
)

// SCRAM mechanism names.
const (
	MechScramSHA256 = "SCRAM-SHA-256"
	MechScramSHA512 = "SCRAM-SHA-512"
)

// scramEngine implements SCRAM-SHA-256/512 by delegating the mechanism
// internals to xdg-go/scram. The client speaks first; the conversation
// runs client-first/server-final over three tokens.
type scramEngine struct {
	mechanism string
	conv      *scram.ClientConversation
	closed    bool
}

// NewScramEngine returns a SCRAM engine for mechanism (MechScramSHA256 or
// MechScramSHA512), resolving its name and secret through resolver under
// identity.
func NewScramEngine(mechanism string, resolver *CallbackResolver, identity *IdentityContext) (Engine, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	var gen scram.HashGeneratorFcn
	switch mechanism {
	case MechScramSHA256:
		gen = scram.SHA256
	case MechScramSHA512:
		gen = scram.SHA512
	default:
		return nil, fmt.Errorf("sasl: scram: unknown mechanism %q", mechanism)
	}

	name := &NameCallback{Prompt: "SASL username", DefaultName: identity.ShortName()}
	secret := &SecretCallback{Prompt: "SASL password"}
	if err := resolver.Resolve(name, secret); err != nil {
		return nil, err
	}

	client, err := gen.NewClient(name.Name, string(secret.Secret), "")
	if err != nil {
		return nil, fmt.Errorf("sasl: scram: %w", err)
	}
	return &scramEngine{mechanism: mechanism, conv: client.NewConversation()}, nil
}

func (e *scramEngine) Mechanism() string { return e.mechanism }

func (e *scramEngine) Complete() bool { return e.conv.Done() }

func (e *scramEngine) EvaluateChallenge(challenge []byte) ([]byte, error) {
	if e.conv.Done() {
		if len(challenge) != 0 {
			return nil, errors.New("sasl: scram: unexpected challenge after completion")
		}
		return nil, nil
	}
	resp, err := e.conv.Step(string(challenge))
	if err != nil {
		return nil, fmt.Errorf("sasl: scram: %w", err)
	}
	if resp == "" {
		return nil, nil
	}
	return []byte(resp), nil
}

func (e *scramEngine) Close() error {
	e.closed = true
	return nil
}
