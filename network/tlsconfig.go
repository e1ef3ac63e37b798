package network

import "fmt"

// Recognized TLS configuration option keys. Configuration arrives as an
// in-memory key/value structure from the caller; unknown keys are
// rejected so typos fail at setup, not silently at use.
const (
	ConfigProtocol              = "protocol"
	ConfigProvider              = "provider"
	ConfigCipherSuites          = "cipher_suites"
	ConfigEnabledProtocols      = "enabled_protocols"
	ConfigRequireClientCert     = "require_client_cert"
	ConfigKeyManagerAlgorithm   = "keymanager_algorithm"
	ConfigTrustManagerAlgorithm = "trustmanager_algorithm"
	ConfigKeystoreType          = "keystore_type"
	ConfigKeystoreLocation      = "keystore_location"
	ConfigKeystorePassword      = "keystore_password"
	ConfigKeyPassword           = "key_password"
	ConfigTruststoreType        = "truststore_type"
	ConfigTruststoreLocation    = "truststore_location"
	ConfigTruststorePassword    = "truststore_password"
)

// TLSConfig is the validated TLS configuration. Built once from the
// option map, immutable thereafter, and safe to share read-only across
// connections.
type TLSConfig struct {
	Protocol          string
	Provider          string
	CipherSuites      []string
	EnabledProtocols  []string
	RequireClientCert bool

	// KeyManagerAlgorithm and TrustManagerAlgorithm are accepted and
	// recorded for configuration compatibility. crypto/tls has no
	// pluggable manager algorithms, so nothing consults them.
	KeyManagerAlgorithm   string
	TrustManagerAlgorithm string

	Keystore   *KeyMaterial
	Truststore *KeyMaterial
}

// ParseTLSConfig validates the option map and builds a TLSConfig. The
// keystore/truststore path and password pairing invariant is enforced
// here, at build time, never at use time.
func ParseTLSConfig(options map[string]any) (*TLSConfig, error) {
	for key := range options {
		switch key {
		case ConfigProtocol, ConfigProvider, ConfigCipherSuites, ConfigEnabledProtocols,
			ConfigRequireClientCert, ConfigKeyManagerAlgorithm, ConfigTrustManagerAlgorithm,
			ConfigKeystoreType, ConfigKeystoreLocation, ConfigKeystorePassword, ConfigKeyPassword,
			ConfigTruststoreType, ConfigTruststoreLocation, ConfigTruststorePassword:
		default:
			return nil, &ConfigError{Field: key, Reason: "unrecognized option"}
		}
	}

	cfg := &TLSConfig{}
	var err error

	if cfg.Protocol, err = stringOption(options, ConfigProtocol); err != nil {
		return nil, err
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "TLS"
	}
	if cfg.Provider, err = stringOption(options, ConfigProvider); err != nil {
		return nil, err
	}
	if cfg.CipherSuites, err = stringListOption(options, ConfigCipherSuites); err != nil {
		return nil, err
	}
	if cfg.EnabledProtocols, err = stringListOption(options, ConfigEnabledProtocols); err != nil {
		return nil, err
	}
	if cfg.RequireClientCert, err = boolOption(options, ConfigRequireClientCert); err != nil {
		return nil, err
	}
	if cfg.KeyManagerAlgorithm, err = stringOption(options, ConfigKeyManagerAlgorithm); err != nil {
		return nil, err
	}
	if cfg.TrustManagerAlgorithm, err = stringOption(options, ConfigTrustManagerAlgorithm); err != nil {
		return nil, err
	}

	ksType, err := stringOption(options, ConfigKeystoreType)
	if err != nil {
		return nil, err
	}
	ksPath, err := stringOption(options, ConfigKeystoreLocation)
	if err != nil {
		return nil, err
	}
	ksPassword, err := stringOption(options, ConfigKeystorePassword)
	if err != nil {
		return nil, err
	}
	keyPassword, err := stringOption(options, ConfigKeyPassword)
	if err != nil {
		return nil, err
	}
	cfg.Keystore, err = NewKeyMaterial(ConfigKeystoreLocation, ksType, ksPath, ksPassword, keyPassword)
	if err != nil {
		return nil, err
	}

	tsType, err := stringOption(options, ConfigTruststoreType)
	if err != nil {
		return nil, err
	}
	tsPath, err := stringOption(options, ConfigTruststoreLocation)
	if err != nil {
		return nil, err
	}
	tsPassword, err := stringOption(options, ConfigTruststorePassword)
	if err != nil {
		return nil, err
	}
	cfg.Truststore, err = NewKeyMaterial(ConfigTruststoreLocation, tsType, tsPath, tsPassword, "")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func stringOption(options map[string]any, key string) (string, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigError{Field: key, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	return s, nil
}

func stringListOption(options map[string]any, key string) ([]string, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &ConfigError{Field: key, Reason: fmt.Sprintf("expected string element, got %T", item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &ConfigError{Field: key, Reason: fmt.Sprintf("expected string list, got %T", v)}
	}
}

func boolOption(options map[string]any, key string) (bool, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ConfigError{Field: key, Reason: fmt.Sprintf("expected bool, got %T", v)}
	}
	return b, nil
}
