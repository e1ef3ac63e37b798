package sasl

import "fmt"

// Callback is one query raised by a mechanism engine during challenge
// evaluation. The set of kinds is closed: Name, Secret, Realm and
// Authorize. A resolver must reject anything else rather than skip it,
// since silently ignoring an unknown callback would mask a protocol
// change.
type Callback interface {
	// kind names the callback for diagnostics and seals the set.
	kind() string
}

// NameCallback asks for the identity name to authenticate as.
type NameCallback struct {
	Prompt      string
	DefaultName string

	// Name is filled in by the resolver.
	Name string
}

// SecretCallback asks for the secret (password) of the authenticating
// identity.
type SecretCallback struct {
	Prompt string

	// Secret is filled in by the resolver.
	Secret []byte
}

// RealmCallback asks for the realm to authenticate within.
type RealmCallback struct {
	Prompt       string
	DefaultRealm string

	// Realm is filled in by the resolver.
	Realm string
}

// AuthorizeCallback asks whether the authenticated identity may act as
// the requested authorization identity.
type AuthorizeCallback struct {
	// AuthenticationID is the identity that proved itself.
	AuthenticationID string

	// AuthorizationID is the identity it wants to act as.
	AuthorizationID string

	// Authorized and AuthorizedID are filled in by the resolver.
	// AuthorizedID is set only when Authorized is true.
	Authorized   bool
	AuthorizedID string
}

func (*NameCallback) kind() string      { return "name" }
func (*SecretCallback) kind() string    { return "secret" }
func (*RealmCallback) kind() string     { return "realm" }
func (*AuthorizeCallback) kind() string { return "authorize" }

// UnsupportedCallbackError reports a callback kind outside the closed set.
type UnsupportedCallbackError struct {
	Kind string
}

func (e *UnsupportedCallbackError) Error() string {
	return fmt.Sprintf("sasl: unsupported callback kind %q", e.Kind)
}

// ErrNoSecret is returned when a mechanism needs a secret but none was
// configured.
type ErrNoSecret struct{}

func (ErrNoSecret) Error() string {
	return "sasl: no secret available for the secret callback; " +
		"configure a password or point the client at a ticket cache"
}

// CallbackResolver answers callbacks using externally supplied identity
// context. It holds no mechanism state and may serve many engines.
type CallbackResolver struct {
	secret []byte
}

// NewCallbackResolver returns a resolver that answers secret callbacks
// from secret. Pass nil when no secret is configured (e.g. ticket-cache
// Kerberos); a mechanism that then asks for one gets ErrNoSecret.
func NewCallbackResolver(secret []byte) *CallbackResolver {
	return &CallbackResolver{secret: secret}
}

// Resolve answers each callback in order. The switch is exhaustive over
// the closed callback set; anything else fails with
// UnsupportedCallbackError naming the kind.
func (r *CallbackResolver) Resolve(callbacks ...Callback) error {
	for _, cb := range callbacks {
		switch c := cb.(type) {
		case *NameCallback:
			c.Name = c.DefaultName
		case *SecretCallback:
			if r.secret == nil {
				return ErrNoSecret{}
			}
			c.Secret = append([]byte(nil), r.secret...)
		case *RealmCallback:
			c.Realm = c.DefaultRealm
		case *AuthorizeCallback:
			if c.AuthenticationID == c.AuthorizationID {
				c.Authorized = true
				c.AuthorizedID = c.AuthorizationID
			} else {
				c.Authorized = false
				c.AuthorizedID = ""
			}
		default:
			return &UnsupportedCallbackError{Kind: c.kind()}
		}
	}
	return nil
}
