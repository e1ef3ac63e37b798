package sasl

import "errors"

// MechPlain is the PLAIN mechanism name.
const MechPlain = "PLAIN"

// plainEngine implements PLAIN (RFC 4616). The client speaks first and
// is done in one round: authzid NUL authcid NUL passwd.
type plainEngine struct {
	resolver *CallbackResolver
	identity *IdentityContext
	complete bool
	closed   bool
}

// NewPlainEngine returns a PLAIN engine resolving its name and secret
// through resolver under identity.
func NewPlainEngine(resolver *CallbackResolver, identity *IdentityContext) (Engine, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return &plainEngine{resolver: resolver, identity: identity}, nil
}

func (e *plainEngine) Mechanism() string { return MechPlain }

func (e *plainEngine) Complete() bool { return e.complete }

func (e *plainEngine) EvaluateChallenge(challenge []byte) ([]byte, error) {
	if e.complete {
		return nil, errors.New("sasl: plain: unexpected challenge after completion")
	}
	if len(challenge) != 0 {
		return nil, errors.New("sasl: plain: server sent a challenge, but PLAIN has none")
	}

	name := &NameCallback{Prompt: "SASL username", DefaultName: e.identity.ShortName()}
	secret := &SecretCallback{Prompt: "SASL password"}
	if err := e.resolver.Resolve(name, secret); err != nil {
		return nil, err
	}

	resp := make([]byte, 0, 2*len(name.Name)+len(secret.Secret)+2)
	resp = append(resp, name.Name...) // authzid == authcid
	resp = append(resp, 0)
	resp = append(resp, name.Name...)
	resp = append(resp, 0)
	resp = append(resp, secret.Secret...)
	e.complete = true
	return resp, nil
}

func (e *plainEngine) Close() error {
	e.closed = true
	return nil
}
