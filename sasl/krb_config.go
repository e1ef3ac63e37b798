package sasl

// Kerberos backend selection.
const (
	// KerberosBackendGokrb5 selects the jcmturner/gokrb5 backend.
	KerberosBackendGokrb5 = "gokrb5"

	// KerberosBackendPure selects the go-krb5/krb5 backend.
	KerberosBackendPure = "pure"
)

// KerberosConfig holds unified configuration for any Kerberos backend.
//
// Exactly one credential source is used, tried in order: keytab,
// credential cache, password (supplied through the callback resolver).
// A ticket obtained with kinit lands in the credential cache, so
// CCachePath is the usual path for interactive use.
type KerberosConfig struct {
	// Backend selects the Kerberos implementation. Empty means
	// KerberosBackendGokrb5.
	Backend string

	// Krb5ConfPath is the path to krb5.conf. When empty, $KRB5_CONFIG is
	// consulted, then /etc/krb5.conf.
	Krb5ConfPath string

	// KeytabPath is the path to a keytab file (optional).
	KeytabPath string

	// CCachePath is the path to a credential cache (optional).
	CCachePath string
}
