package network

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Store types understood by the KeyMaterial loader.
const (
	// StorePEM is a PEM bundle: certificate chain plus, for keystores,
	// the private key.
	StorePEM = "PEM"

	// StorePKCS12 is a password-protected PKCS#12 archive.
	StorePKCS12 = "PKCS12"
)

// KeyMaterial describes a keystore or truststore on disk. Path and
// Password must both be present or both be absent; the mismatch is a
// configuration error raised when the material is built, not when the
// store is first read.
type KeyMaterial struct {
	StoreType string
	Path      string
	Password  string

	// KeyPassword optionally protects the private key separately from
	// the store. Keystores only.
	KeyPassword string
}

// NewKeyMaterial validates the pairing invariant and returns the
// material, or nil when neither path nor password is configured (no
// store, not an error). field names the location option for
// diagnostics.
func NewKeyMaterial(field, storeType, path, password, keyPassword string) (*KeyMaterial, error) {
	switch {
	case path == "" && password != "":
		return nil, &ConfigError{Field: field, Reason: "store password is set but store location is not"}
	case path != "" && password == "":
		return nil, &ConfigError{Field: field, Reason: "store location is set but store password is not"}
	case path == "":
		return nil, nil
	}
	if storeType == "" {
		storeType = StorePEM
	}
	if storeType != StorePEM && storeType != StorePKCS12 {
		return nil, &ConfigError{Field: field, Reason: fmt.Sprintf("unknown store type %q", storeType)}
	}
	return &KeyMaterial{StoreType: storeType, Path: path, Password: password, KeyPassword: keyPassword}, nil
}

// LoadKeyPair loads the material as a keystore: a certificate chain with
// its private key.
func (m *KeyMaterial) LoadKeyPair() (tls.Certificate, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("network: read keystore %s: %w", m.Path, err)
	}

	switch m.StoreType {
	case StorePKCS12:
		password := m.Password
		if m.KeyPassword != "" {
			password = m.KeyPassword
		}
		key, cert, caCerts, err := pkcs12.DecodeChain(data, password)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("network: decode PKCS12 keystore %s: %w", m.Path, err)
		}
		out := tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}
		for _, ca := range caCerts {
			out.Certificate = append(out.Certificate, ca.Raw)
		}
		return out, nil

	case StorePEM:
		cert, err := loadPEMKeyPair(data)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("network: load PEM keystore %s: %w", m.Path, err)
		}
		return cert, nil

	default:
		return tls.Certificate{}, fmt.Errorf("network: keystore %s: unknown store type %q", m.Path, m.StoreType)
	}
}

// LoadCertPool loads the material as a truststore: a pool of trusted
// certificates.
func (m *KeyMaterial) LoadCertPool() (*x509.CertPool, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("network: read truststore %s: %w", m.Path, err)
	}

	pool := x509.NewCertPool()
	switch m.StoreType {
	case StorePKCS12:
		certs, err := pkcs12.DecodeTrustStore(data, m.Password)
		if err != nil {
			return nil, fmt.Errorf("network: decode PKCS12 truststore %s: %w", m.Path, err)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
		}
		return pool, nil

	case StorePEM:
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("network: truststore %s holds no PEM certificates", m.Path)
		}
		return pool, nil

	default:
		return nil, fmt.Errorf("network: truststore %s: unknown store type %q", m.Path, m.StoreType)
	}
}

// loadPEMKeyPair splits a PEM bundle into certificate and key blocks and
// pairs them.
func loadPEMKeyPair(data []byte) (tls.Certificate, error) {
	var certPEM, keyPEM []byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		} else {
			keyPEM = append(keyPEM, pem.EncodeToMemory(block)...)
		}
	}
	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return tls.Certificate{}, fmt.Errorf("bundle must hold both certificate and key blocks")
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}
