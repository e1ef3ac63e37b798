package sasl

import (
	"errors"
	"fmt"
)

// MechGSSAPI is the GSSAPI (Kerberos v5) mechanism name.
const MechGSSAPI = "GSSAPI"

// KerberosProvider handles the low-level Kerberos token exchange for the
// GSSAPI engine. It abstracts the difference between the gokrb5 backend
// and the go-krb5 fork.
//
// Providers are NOT safe for concurrent use; each connection gets its
// own instance. Construction may contact the KDC (login, service
// ticket); Step never does, so an established provider is safe to drive
// from a non-blocking event loop.
type KerberosProvider interface {
	// Step processes an input token (server challenge) and produces an
	// output token (response). On the first call the input token is
	// empty. continueNeeded is true while more rounds are expected.
	Step(inputToken []byte) (outputToken []byte, continueNeeded bool, err error)

	// Complete returns true once the security context is established.
	Complete() bool

	// Close releases the provider's Kerberos session.
	Close() error
}

// gssapiEngine adapts a KerberosProvider to the Engine contract and
// routes the identity queries of the exchange through the callback
// resolver.
type gssapiEngine struct {
	provider  KerberosProvider
	resolver  *CallbackResolver
	identity  *IdentityContext
	name      string
	realm     string
	principal Identity
	closed    bool
}

// NewGSSAPIEngine wraps provider as a GSSAPI engine. The authenticating
// name and realm are resolved up front through resolver, mirroring the
// name and realm queries a SASL/GSSAPI stack raises while binding the
// security context.
func NewGSSAPIEngine(provider KerberosProvider, resolver *CallbackResolver, identity *IdentityContext) (Engine, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	name := &NameCallback{Prompt: "Kerberos principal", DefaultName: identity.Principal}
	realm := &RealmCallback{Prompt: "Kerberos realm", DefaultRealm: identity.EffectiveServerRealm()}
	if err := resolver.Resolve(name, realm); err != nil {
		return nil, err
	}

	return &gssapiEngine{
		provider:  provider,
		resolver:  resolver,
		identity:  identity,
		name:      name.Name,
		realm:     realm.Realm,
		principal: Anonymous(),
	}, nil
}

func (e *gssapiEngine) Mechanism() string { return MechGSSAPI }

func (e *gssapiEngine) Complete() bool { return e.provider.Complete() }

func (e *gssapiEngine) EvaluateChallenge(challenge []byte) ([]byte, error) {
	if e.provider.Complete() {
		if len(challenge) != 0 {
			return nil, errors.New("sasl: gssapi: unexpected challenge after completion")
		}
		return nil, nil
	}

	token, cont, err := e.provider.Step(challenge)
	if err != nil {
		return nil, err
	}

	if !cont {
		// Context established: check the authenticated identity may act
		// as itself before reporting success.
		ac := &AuthorizeCallback{
			AuthenticationID: e.name,
			AuthorizationID:  e.name,
		}
		if err := e.resolver.Resolve(ac); err != nil {
			return nil, err
		}
		if !ac.Authorized {
			return nil, fmt.Errorf("sasl: gssapi: %s is not authorized to act as %s",
				ac.AuthenticationID, ac.AuthorizationID)
		}
		e.principal = Identity{Name: ac.AuthorizedID}
	}
	return token, nil
}

// Principal returns the resolved identity once the exchange is complete,
// and the anonymous placeholder before that.
func (e *gssapiEngine) Principal() Identity {
	if !e.provider.Complete() {
		return Anonymous()
	}
	return e.principal
}

func (e *gssapiEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.provider.Close()
}
