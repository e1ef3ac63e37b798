package sasl

import (
	"fmt"

	"github.com/go-krb5/krb5/client"
	"github.com/go-krb5/krb5/credentials"
	"github.com/go-krb5/krb5/gssapi"
	"github.com/go-krb5/krb5/iana/flags"
	"github.com/go-krb5/krb5/iana/keyusage"
	"github.com/go-krb5/krb5/keytab"
	"github.com/go-krb5/krb5/messages"
	"github.com/go-krb5/krb5/spnego"
	"github.com/go-krb5/krb5/types"

	krb5config "github.com/go-krb5/krb5/config"
)

// pureProvider implements KerberosProvider using the go-krb5 fork. The
// exchange is identical to the gokrb5 backend: AP-REQ, AP-REP, RFC 4752
// security layer round.
type pureProvider struct {
	cl       *client.Client
	tkt      messages.Ticket
	key      types.EncryptionKey
	spn      string
	state    int
	complete bool
}

// NewPureProvider builds a go-krb5 backed provider for identity using
// cfg's credential source. As with the gokrb5 backend, all KDC round
// trips happen here, not inside Step.
func NewPureProvider(cfg KerberosConfig, resolver *CallbackResolver, identity *IdentityContext) (KerberosProvider, error) {
	confPath := cfg.Krb5ConfPath
	conf, err := loadPureKrb5Conf(confPath)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*client.Settings){
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

	return &pureProvider{cl: cl, tkt: tkt, key: key, spn: spn}, nil
}

func (p *pureProvider) Complete() bool { return p.complete }

func (p *pureProvider) Step(inputToken []byte) ([]byte, bool, error) {
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

func (p *pureProvider) Close() error {
	p.cl.Destroy()
	return nil
}

func loadPureKrb5Conf(path string) (*krb5config.Config, error) {
	if path == "" {
		path = defaultKrb5ConfPath()
	}
	conf, err := krb5config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("sasl: gssapi: load krb5.conf from %s: %w", path, err)
	}
	return conf, nil
}
