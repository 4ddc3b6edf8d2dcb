package transport

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// writeKeyPair writes a self-signed certificate and its key to dir
func writeKeyPair(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "wsctl test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "client.pem")
	keyFile = filepath.Join(dir, "client-key.pem")
	writePEM(t, certFile, "CERTIFICATE", der)
	writePEM(t, keyFile, "EC PRIVATE KEY", keyDER)
	return certFile, keyFile
}

func TestHTTPSConfig_LoadCertificate(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir)

	config := DefaultHTTPSConfig()
	require.NoError(t, config.LoadCertificate(certFile, keyFile))
	assert.Len(t, config.Certificates, 1)
	assert.Len(t, config.clientTLS().Certificates, 1)

	assert.Error(t, config.LoadCertificate(filepath.Join(dir, "missing.pem"), keyFile))

	require.NoError(t, config.LoadClientCAs(certFile))
	assert.Equal(t, tls.RequireAndVerifyClientCert, config.serverTLS().ClientAuth)
	assert.NotNil(t, config.serverTLS().ClientCAs)
}

func TestHTTPSConfig_LoadRootCAs_Errors(t *testing.T) {
	dir := t.TempDir()
	config := DefaultHTTPSConfig()

	assert.Error(t, config.LoadRootCAs(filepath.Join(dir, "missing.pem")))

	empty := filepath.Join(dir, "empty.pem")
	require.NoError(t, os.WriteFile(empty, []byte("not a certificate"), 0o600))
	assert.ErrorIs(t, config.LoadRootCAs(empty), ErrNoCertificates)
}

func TestHTTPSConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultHTTPSConfig().Validate())

	config := DefaultHTTPSConfig()
	config.MinTLSVersion = TLS13
	config.MaxTLSVersion = TLS12
	assert.Error(t, config.Validate())
}

func TestHTTPMessageSender_TrustedServer(t *testing.T) {
	server := httptest.NewTLSServer(NewHTTPServer("", nil, EchoReceiver()).Handler())
	defer server.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writePEM(t, caFile, "CERTIFICATE", server.Certificate().Raw)

	ctx := context.Background()
	factory := soap.NewMessageFactory(soap.V11)

	t.Run("unknown authority", func(t *testing.T) {
		sender := NewHTTPMessageSender(nil)
		defer sender.Close()

		conn, err := sender.CreateConnection(ctx, mustParseURL(t, server.URL))
		require.NoError(t, err)
		defer conn.Close()
		assert.Error(t, conn.Send(ctx, factory.CreateMessage()))
	})

	t.Run("trusted CA file", func(t *testing.T) {
		config := DefaultHTTPSenderConfig()
		require.NoError(t, config.TLS.LoadRootCAs(caFile))
		sender := NewHTTPMessageSender(config)
		defer sender.Close()

		conn, err := sender.CreateConnection(ctx, mustParseURL(t, server.URL))
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.Send(ctx, factory.CreateMessage()))

		response, err := conn.Receive(ctx, factory)
		require.NoError(t, err)
		require.NotNil(t, response)
		assert.False(t, response.HasFault())
	})
}
