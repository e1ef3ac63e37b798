package sasl

import "fmt"

// NewKerberosProvider creates the Kerberos backend selected by
// cfg.Backend. The default is the gokrb5 backend.
func NewKerberosProvider(cfg KerberosConfig, resolver *CallbackResolver, identity *IdentityContext) (KerberosProvider, error) {
	switch cfg.Backend {
	case "", KerberosBackendGokrb5:
		return NewGokrb5Provider(cfg, resolver, identity)
	case KerberosBackendPure:
		return NewPureProvider(cfg, resolver, identity)
	default:
		return nil, fmt.Errorf("sasl: unknown kerberos backend %q", cfg.Backend)
	}
}

// NewEngine creates an engine for the named mechanism. GSSAPI engines
// are constructed through NewKerberosProvider with krb; the other
// mechanisms ignore it.
func NewEngine(mechanism string, krb KerberosConfig, resolver *CallbackResolver, identity *IdentityContext) (Engine, error) {
	switch mechanism {
	case MechPlain:
		return NewPlainEngine(resolver, identity)
	case MechScramSHA256, MechScramSHA512:
		return NewScramEngine(mechanism, resolver, identity)
	case MechGSSAPI:
		provider, err := NewKerberosProvider(krb, resolver, identity)
		if err != nil {
			return nil, err
		}
		return NewGSSAPIEngine(provider, resolver, identity)
	default:
		return nil, fmt.Errorf("sasl: unknown mechanism %q", mechanism)
	}
}
