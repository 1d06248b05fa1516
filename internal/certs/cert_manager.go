package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrExpired is returned for certificates past NotAfter.
var ErrExpired = errors.New("certificate expired")

// CertManager loads the server's TLS key pair and reports on its validity.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a CertManager for the given PEM files.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// Leaf parses the first certificate in the cert file.
func (cm *CertManager) Leaf() (*x509.Certificate, error) {
	data, err := os.ReadFile(cm.certFile)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("failed to parse certificate PEM")
	}
	return x509.ParseCertificate(block.Bytes)
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires in less than d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// TLSConfig loads the key pair, refusing expired certificates.
func (cm *CertManager) TLSConfig() (*tls.Config, *x509.Certificate, error) {
	leaf, err := cm.Leaf()
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", cm.certFile, err)
	}
	if cm.IsExpired(leaf) {
		return nil, leaf, fmt.Errorf("%s: %w on %s", cm.certFile, ErrExpired, leaf.NotAfter.Format(time.RFC3339))
	}
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return nil, leaf, fmt.Errorf("load key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, leaf, nil
}
