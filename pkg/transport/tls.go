package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// ErrNoCertificates is returned when a CA file holds no PEM certificates
var ErrNoCertificates = errors.New("no certificates found")

// RecommendedTLS12CipherSuites apply to TLS 1.2 only; Go does not allow
// configuring TLS 1.3 suites.
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// HTTPSConfig holds the TLS and timeout settings used by senders and servers.
// Certificates are the server certificate, or the client certificate for
// mutual TLS on the sending side.
type HTTPSConfig struct {
	MinTLSVersion      uint16
	MaxTLSVersion      uint16
	CipherSuites       []uint16
	ClientAuth         tls.ClientAuthType
	Certificates       []tls.Certificate
	RootCAs            *x509.CertPool
	ClientCAs          *x509.CertPool
	InsecureSkipVerify bool
	// Timeout bounds the TLS handshake for senders and request reads and
	// writes for servers.
	Timeout         time.Duration
	IdleConnTimeout time.Duration
}

// DefaultHTTPSConfig returns TLS 1.2-1.3 with the recommended suites
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		ClientAuth:      tls.NoClientCert,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
	}
}

// LoadCertificate adds the key pair in certFile and keyFile (PEM)
func (c *HTTPSConfig) LoadCertificate(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("loading key pair %s: %w", certFile, err)
	}
	c.Certificates = append(c.Certificates, cert)
	return nil
}

// LoadRootCAs trusts only the certificates in caFile when verifying servers
func (c *HTTPSConfig) LoadRootCAs(caFile string) error {
	pool, err := loadCertPool(caFile)
	if err != nil {
		return err
	}
	c.RootCAs = pool
	return nil
}

// LoadClientCAs requires and verifies client certificates issued by the
// certificates in caFile
func (c *HTTPSConfig) LoadClientCAs(caFile string) error {
	pool, err := loadCertPool(caFile)
	if err != nil {
		return err
	}
	c.ClientCAs = pool
	c.ClientAuth = tls.RequireAndVerifyClientCert
	return nil
}

// Validate checks the version range
func (c *HTTPSConfig) Validate() error {
	if c.MinTLSVersion != 0 && c.MaxTLSVersion != 0 && c.MinTLSVersion > c.MaxTLSVersion {
		return fmt.Errorf("TLS min version %s is above max version %s",
			tls.VersionName(c.MinTLSVersion), tls.VersionName(c.MaxTLSVersion))
	}
	return nil
}

func loadCertPool(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w in %s", ErrNoCertificates, caFile)
	}
	return pool, nil
}

func (c *HTTPSConfig) clientTLS() *tls.Config {
	return &tls.Config{
		MinVersion:         c.MinTLSVersion,
		MaxVersion:         c.MaxTLSVersion,
		CipherSuites:       c.CipherSuites,
		Certificates:       c.Certificates,
		RootCAs:            c.RootCAs,
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // opt-in for test endpoints
	}
}

func (c *HTTPSConfig) serverTLS() *tls.Config {
	return &tls.Config{
		MinVersion:   c.MinTLSVersion,
		MaxVersion:   c.MaxTLSVersion,
		CipherSuites: c.CipherSuites,
		Certificates: c.Certificates,
		ClientCAs:    c.ClientCAs,
		ClientAuth:   c.ClientAuth,
	}
}
