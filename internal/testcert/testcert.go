// Package testcert generates throwaway certificates and key/trust
// stores for tests. Nothing here is suitable for production use.
package testcert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// KeyPair is a freshly generated certificate with its private key.
type KeyPair struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey

	CertPEM []byte
	KeyPEM  []byte
}

// NewSelfSigned generates a self-signed certificate for cn, valid for
// the given hosts (names or IP literals) for one hour.
func NewSelfSigned(cn string, hosts ...string) (*KeyPair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("testcert: generate key: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("testcert: create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("testcert: parse certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("testcert: marshal key: %w", err)
	}

	return &KeyPair{
		Cert:    cert,
		Key:     key,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// WritePEMKeyStore writes the pair as a combined PEM bundle keystore.
func (p *KeyPair) WritePEMKeyStore(path string) error {
	data := append(append([]byte{}, p.CertPEM...), p.KeyPEM...)
	return os.WriteFile(path, data, 0o600)
}

// WritePEMTrustStore writes just the certificate as a PEM truststore.
func (p *KeyPair) WritePEMTrustStore(path string) error {
	return os.WriteFile(path, p.CertPEM, 0o600)
}

// WritePKCS12KeyStore writes the pair as a PKCS#12 keystore protected by
// password.
func (p *KeyPair) WritePKCS12KeyStore(path, password string) error {
	data, err := pkcs12.Modern.Encode(p.Key, p.Cert, nil, password)
	if err != nil {
		return fmt.Errorf("testcert: encode PKCS12 keystore: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// WritePKCS12TrustStore writes the certificate as a PKCS#12 truststore
// protected by password.
func (p *KeyPair) WritePKCS12TrustStore(path, password string) error {
	data, err := pkcs12.Modern.EncodeTrustStore([]*x509.Certificate{p.Cert}, password)
	if err != nil {
		return fmt.Errorf("testcert: encode PKCS12 truststore: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
