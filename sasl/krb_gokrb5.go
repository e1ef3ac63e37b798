package sasl

import (
	"fmt"
	"os"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/gssapi"
	"github.com/jcmturner/gokrb5/v8/iana/flags"
	"github.com/jcmturner/gokrb5/v8/iana/keyusage"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/spnego"
	"github.com/jcmturner/gokrb5/v8/types"
)

// Exchange states for the raw krb5 GSSAPI flow.
const (
	krbStateInitial = iota
	krbStateAwaitAPRep
	krbStateAwaitWrap
	krbStateDone
)

// Wrap tokens start with TOK_ID 05 04 (RFC 4121 section 4.2.6.2); the
// header is 16 bytes.
const wrapTokenHeaderLen = 16

func isWrapToken(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x05 && b[1] == 0x04
}

// gokrb5Provider implements KerberosProvider using jcmturner/gokrb5.
//
// The flow is the raw krb5 GSS-API exchange a SASL/GSSAPI peer expects:
// AP-REQ out, AP-REP back (mutual auth), then the RFC 4752 security
// layer round where the acceptor's wrap token is verified and answered
// with an initiator wrap token carrying the chosen layer.
type gokrb5Provider struct {
	cl       *client.Client
	tkt      messages.Ticket
	key      types.EncryptionKey
	spn      string
	state    int
	complete bool
}

// NewGokrb5Provider builds a provider for identity using cfg's
// credential source. It logs in and obtains the service ticket up front,
// so the KDC round trips happen at setup time, not inside Step.
func NewGokrb5Provider(cfg KerberosConfig, resolver *CallbackResolver, identity *IdentityContext) (KerberosProvider, error) {
	conf, err := loadKrb5Conf(cfg.Krb5ConfPath)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*client.Settings){
		// Older KDCs choke on FAST negotiation.
		client.DisablePAFXFAST(true),
	}

	var cl *client.Client
	switch {
	case cfg.KeytabPath != "":
		kt, err := keytab.Load(cfg.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("sasl: gssapi: load keytab %s: %w", cfg.KeytabPath, err)
		}
		cl = client.NewWithKeytab(identity.ShortName(), identity.Realm, kt, conf, clientOpts...)
		if err := cl.Login(); err != nil {
			return nil, fmt.Errorf("sasl: gssapi: keytab login: %w", err)
		}
	case cfg.CCachePath != "":
		cc, err := credentials.LoadCCache(cfg.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("sasl: gssapi: load ccache %s: %w", cfg.CCachePath, err)
		}
		cl, err = client.NewFromCCache(cc, conf, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("sasl: gssapi: client from ccache: %w", err)
		}
	default:
		secret := &SecretCallback{Prompt: "Kerberos password"}
		if err := resolver.Resolve(secret); err != nil {
			return nil, err
		}
		cl = client.NewWithPassword(identity.ShortName(), identity.Realm, string(secret.Secret), conf, clientOpts...)
		if err := cl.Login(); err != nil {
			return nil, fmt.Errorf("sasl: gssapi: password login: %w", err)
		}
	}

	spn := identity.SPN()
	tkt, key, err := cl.GetServiceTicket(spn)
	if err != nil {
		cl.Destroy()
		return nil, fmt.Errorf("sasl: gssapi: service ticket for %s: %w", spn, err)
	}

	return &gokrb5Provider{cl: cl, tkt: tkt, key: key, spn: spn}, nil
}

func (p *gokrb5Provider) Complete() bool { return p.complete }

func (p *gokrb5Provider) Step(inputToken []byte) ([]byte, bool, error) {
	switch p.state {
	case krbStateInitial:
		if len(inputToken) != 0 {
			return nil, false, fmt.Errorf("sasl: gssapi: unexpected %d-byte token before AP-REQ", len(inputToken))
		}
		apreq, err := spnego.NewKRB5TokenAPREQ(p.cl, p.tkt, p.key,
			[]int{gssapi.ContextFlagInteg, gssapi.ContextFlagConf, gssapi.ContextFlagMutual, gssapi.ContextFlagSequence},
			[]int{flags.APOptionMutualRequired})
		if err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: build AP-REQ: %w", err)
		}
		b, err := apreq.Marshal()
		if err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: marshal AP-REQ: %w", err)
		}
		p.state = krbStateAwaitAPRep
		return b, true, nil

	case krbStateAwaitAPRep:
		if len(inputToken) == 0 {
			return nil, false, fmt.Errorf("sasl: gssapi: empty token while awaiting AP-REP: %w", ErrTokenUnderflow)
		}
		// Some acceptors skip straight to the security layer round.
		if isWrapToken(inputToken) {
			p.state = krbStateAwaitWrap
			return p.Step(inputToken)
		}
		var kt spnego.KRB5Token
		if err := kt.Unmarshal(inputToken); err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: parse server token: %w", err)
		}
		if kt.IsKRBError() {
			return nil, false, fmt.Errorf("sasl: gssapi: server returned KRB-ERROR: %s", kt.KRBError.EText)
		}
		if !kt.IsAPRep() {
			return nil, false, fmt.Errorf("sasl: gssapi: expected AP-REP, got unrecognized token")
		}
		p.state = krbStateAwaitWrap
		return nil, true, nil

	case krbStateAwaitWrap:
		if len(inputToken) < wrapTokenHeaderLen {
			return nil, false, fmt.Errorf("sasl: gssapi: wrap token %d bytes, header needs %d: %w",
				len(inputToken), wrapTokenHeaderLen, ErrTokenUnderflow)
		}
		var wt gssapi.WrapToken
		if err := wt.Unmarshal(inputToken, true); err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: parse wrap token: %w", err)
		}
		if ok, err := wt.Verify(p.key, keyusage.GSSAPI_ACCEPTOR_SEAL); !ok {
			return nil, false, fmt.Errorf("sasl: gssapi: verify wrap token: %w", err)
		}
		// RFC 4752: answer with our chosen security layer (none) and a
		// zero max buffer, wrapped under the session key.
		resp, err := gssapi.NewInitiatorWrapToken([]byte{0x01, 0x00, 0x00, 0x00}, p.key)
		if err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: build response wrap token: %w", err)
		}
		b, err := resp.Marshal()
		if err != nil {
			return nil, false, fmt.Errorf("sasl: gssapi: marshal response wrap token: %w", err)
		}
		p.state = krbStateDone
		p.complete = true
		return b, false, nil

	default:
		return nil, false, fmt.Errorf("sasl: gssapi: step after completion")
	}
}

func (p *gokrb5Provider) Close() error {
	p.cl.Destroy()
	return nil
}

// defaultKrb5ConfPath resolves the krb5.conf location when the config
// leaves it unset: $KRB5_CONFIG, then the system default.
func defaultKrb5ConfPath() string {
	if p := os.Getenv("KRB5_CONFIG"); p != "" {
		return p
	}
	return "/etc/krb5.conf"
}

func loadKrb5Conf(path string) (*config.Config, error) {
	if path == "" {
		path = defaultKrb5ConfPath()
	}
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("sasl: gssapi: load krb5.conf from %s: %w", path, err)
	}
	return conf, nil
}
