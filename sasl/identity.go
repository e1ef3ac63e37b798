package sasl

import (
	"errors"
	"fmt"
	"strings"
)

// IdentityContext is the caller-supplied bundle identifying who is
// authenticating and to which target service. It is read-only for the
// lifetime of the handshake and may be shared across many connections'
// engines; nothing in the authentication path mutates it.
type IdentityContext struct {
	// Principal is the local principal name
	// (e.g. "alice" or "client/host.example.com@EXAMPLE.COM").
	Principal string

	// Realm is the client's Kerberos realm (e.g. "EXAMPLE.COM").
	Realm string

	// ServerRealm optionally overrides the realm the target service is
	// assumed to live in. When empty, the client and server are assumed
	// to share a realm. This replaces any ambient process-wide override:
	// handshake behavior is fully determined by this struct.
	ServerRealm string

	// Service is the target service principal's service part
	// (e.g. "kafka").
	Service string

	// Host is the target host the service runs on. Must be the name the
	// service is registered under (usually the FQDN).
	Host string
}

// Validate checks the fields every mechanism needs.
func (c *IdentityContext) Validate() error {
	if c.Principal == "" {
		return errors.New("sasl: identity context: principal is required")
	}
	if c.Service == "" {
		return errors.New("sasl: identity context: target service is required")
	}
	if c.Host == "" {
		return errors.New("sasl: identity context: target host is required")
	}
	return nil
}

// SPN returns the target service principal name, "service/host".
func (c *IdentityContext) SPN() string {
	return c.Service + "/" + c.Host
}

// EffectiveServerRealm returns the realm the target service principal is
// resolved in: the explicit override if set, else the client realm.
func (c *IdentityContext) EffectiveServerRealm() string {
	if c.ServerRealm != "" {
		return c.ServerRealm
	}
	return c.Realm
}

// ShortName returns the principal without a realm suffix.
func (c *IdentityContext) ShortName() string {
	if i := strings.IndexByte(c.Principal, '@'); i >= 0 {
		return c.Principal[:i]
	}
	return c.Principal
}

// ActAs runs fn within an "acting as this identity" scope. The scope is
// exited on every path out of fn, including failure, and failures are
// attributed to the principal the caller was acting as. Privileged
// operations (challenge evaluation, credential use) belong inside such a
// scope.
func (c *IdentityContext) ActAs(fn func() error) error {
	if err := fn(); err != nil {
		return fmt.Errorf("as %s: %w", c.ShortName(), err)
	}
	return nil
}

// AnonymousPrincipal is the placeholder identity reported by mechanisms
// that do not perform mutual identity exchange.
const AnonymousPrincipal = "ANONYMOUS"

// Identity is a resolved peer identity.
type Identity struct {
	Name string
}

// Anonymous returns the placeholder identity.
func Anonymous() Identity {
	return Identity{Name: AnonymousPrincipal}
}

// IsAnonymous reports whether the identity is the placeholder.
func (i Identity) IsAnonymous() bool {
	return i.Name == AnonymousPrincipal
}

func (i Identity) String() string {
	return i.Name
}
