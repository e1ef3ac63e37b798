package network

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
)

// Mode says which side of the connection a TLS factory serves.
type Mode int

const (
	// ModeClient builds engines that initiate connections.
	ModeClient Mode = iota

	// ModeServer builds engines that accept connections.
	ModeServer
)

func (m Mode) String() string {
	if m == ModeServer {
		return "server"
	}
	return "client"
}

// TLSFactory validates keystore/truststore configuration once and then
// produces independent per-connection TLS engines. A configured factory
// is immutable: engine creation does not mutate shared state, so one
// factory may serve many connections concurrently.
type TLSFactory struct {
	mode       Mode
	cfg        *TLSConfig
	cert       *tls.Certificate
	pool       *x509.CertPool
	cipherIDs  []uint16
	minVersion uint16
	maxVersion uint16
	configured bool
}

// NewTLSFactory returns an unconfigured factory for mode.
func NewTLSFactory(mode Mode) *TLSFactory {
	return &TLSFactory{mode: mode}
}

// Configure validates options and loads the configured key material.
// In server mode, or in client mode with client certificates required, a
// keystore must be present and loadable; a configured truststore is
// always validated. All failures are ConfigErrors naming the offending
// option, raised here rather than at first use.
func (f *TLSFactory) Configure(options map[string]any) error {
	cfg, err := ParseTLSConfig(options)
	if err != nil {
		return err
	}

	if cfg.Provider != "" {
		// Go has a single TLS implementation; an explicit provider can
		// only ever name it.
		if cfg.Provider != "go" && cfg.Provider != "crypto/tls" {
			return &ConfigError{Field: ConfigProvider, Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
		}
	}

	needKeystore := f.mode == ModeServer || (f.mode == ModeClient && cfg.RequireClientCert)
	if needKeystore && cfg.Keystore == nil {
		return &ConfigError{
			Field:  ConfigKeystoreLocation,
			Reason: fmt.Sprintf("keystore is required in %s mode", modeRequirement(f.mode)),
		}
	}

	var cert *tls.Certificate
	if cfg.Keystore != nil {
		loaded, err := cfg.Keystore.LoadKeyPair()
		if err != nil {
			return err
		}
		cert = &loaded
	}

	var pool *x509.CertPool
	if cfg.Truststore != nil {
		if pool, err = cfg.Truststore.LoadCertPool(); err != nil {
			return err
		}
	}

	minVersion, maxVersion, err := resolveProtocolVersions(cfg.Protocol, cfg.EnabledProtocols)
	if err != nil {
		return err
	}

	cipherIDs, err := resolveCipherSuites(cfg.CipherSuites)
	if err != nil {
		return err
	}

	f.cfg = cfg
	f.cert = cert
	f.pool = pool
	f.cipherIDs = cipherIDs
	f.minVersion = minVersion
	f.maxVersion = maxVersion
	f.configured = true
	return nil
}

// Engine is one connection's TLS engine. It is independent of the
// factory that created it and of every other engine.
type Engine struct {
	conf *tls.Config
	mode Mode
}

// Config exposes the engine's TLS configuration.
func (e *Engine) Config() *tls.Config { return e.conf }

// Mode reports which side the engine serves.
func (e *Engine) Mode() Mode { return e.mode }

// IsClient reports whether the engine initiates the connection. Server
// engines always accept, never initiate.
func (e *Engine) IsClient() bool { return e.mode == ModeClient }

// Wrap applies the engine to conn, initiating in client mode and
// accepting in server mode.
func (e *Engine) Wrap(conn net.Conn) *tls.Conn {
	if e.mode == ModeServer {
		return tls.Server(conn, e.conf)
	}
	return tls.Client(conn, e.conf)
}

// CreateEngine produces a fresh engine for a connection to (or from)
// peerHost:peerPort. Configured cipher suites and protocol versions are
// applied; client engines verify the peer as peerHost, server engines
// are set to accept and to demand a client certificate when configured.
func (f *TLSFactory) CreateEngine(peerHost string, peerPort int) (*Engine, error) {
	if !f.configured {
		return nil, &ConfigError{Field: ConfigProtocol, Reason: "factory is not configured"}
	}
	if len(f.cipherIDs) > 0 && f.minVersion >= tls.VersionTLS13 {
		// TLS 1.3 suites are fixed; an explicit list cannot be honored.
		return nil, &ConfigError{
			Field:  ConfigCipherSuites,
			Reason: "cipher suites cannot be configured when only TLSv1.3 is enabled",
		}
	}

	conf := &tls.Config{
		MinVersion:   f.minVersion,
		MaxVersion:   f.maxVersion,
		CipherSuites: f.cipherIDs,
	}
	if f.cert != nil {
		conf.Certificates = []tls.Certificate{*f.cert}
	}

	if f.mode == ModeServer {
		conf.ClientCAs = f.pool
		if f.cfg.RequireClientCert {
			conf.ClientAuth = tls.RequireAndVerifyClientCert
		}
	} else {
		conf.RootCAs = f.pool
		conf.ServerName = peerHost
	}
	_ = peerPort // the session is keyed by host; the port only picks the socket

	return &Engine{conf: conf, mode: f.mode}, nil
}

// CreateServerListener wraps inner so accepted connections speak TLS
// with this factory's configuration. Calling it on a client-mode factory
// is a programming error and fails loudly.
func (f *TLSFactory) CreateServerListener(inner net.Listener) (net.Listener, error) {
	if f.mode != ModeServer {
		return nil, fmt.Errorf("network: CreateServerListener: factory is in client mode")
	}
	engine, err := f.CreateEngine("", 0)
	if err != nil {
		return nil, err
	}
	return tls.NewListener(inner, engine.Config()), nil
}

// IsClientCertRequired reports whether peers must present a client
// certificate.
func (f *TLSFactory) IsClientCertRequired() bool {
	return f.configured && f.cfg.RequireClientCert
}

func modeRequirement(m Mode) string {
	if m == ModeServer {
		return "server"
	}
	return "client mode with require_client_cert"
}

// protocolVersions maps configuration names onto crypto/tls versions.
var protocolVersions = map[string]uint16{
	"TLSv1":   tls.VersionTLS10,
	"TLSv1.1": tls.VersionTLS11,
	"TLSv1.2": tls.VersionTLS12,
	"TLSv1.3": tls.VersionTLS13,
}

// resolveProtocolVersions turns the protocol name and the enabled
// protocol list into a min/max version pair. The bare "TLS" protocol
// floors at 1.2; anything older must be asked for by name.
func resolveProtocolVersions(protocol string, enabled []string) (uint16, uint16, error) {
	if len(enabled) > 0 {
		var minV, maxV uint16
		for _, name := range enabled {
			v, ok := protocolVersions[name]
			if !ok {
				return 0, 0, &ConfigError{Field: ConfigEnabledProtocols, Reason: fmt.Sprintf("unknown protocol %q", name)}
			}
			if minV == 0 || v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		return minV, maxV, nil
	}

	switch protocol {
	case "TLS", "TLSv1.2":
		return tls.VersionTLS12, 0, nil
	case "TLSv1.3":
		return tls.VersionTLS13, 0, nil
	case "TLSv1", "TLSv1.1":
		return protocolVersions[protocol], 0, nil
	default:
		return 0, 0, &ConfigError{Field: ConfigProtocol, Reason: fmt.Sprintf("unknown protocol %q", protocol)}
	}
}

// resolveCipherSuites maps configured suite names onto crypto/tls suite
// ids. Order is irrelevant to the handshake; unknown names are
// configuration errors.
func resolveCipherSuites(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}
	known := make(map[string]uint16)
	for _, cs := range tls.CipherSuites() {
		known[cs.Name] = cs.ID
	}
	for _, cs := range tls.InsecureCipherSuites() {
		known[cs.Name] = cs.ID
	}

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, &ConfigError{Field: ConfigCipherSuites, Reason: fmt.Sprintf("unsupported cipher suite %q", name)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
