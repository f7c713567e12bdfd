package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pemFiles struct{ cert, key, ca string }

// writeSelfSigned writes a throwaway bridge certificate that also serves as
// its own CA bundle.
func writeSelfSigned(t *testing.T) pemFiles {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "meshcore-bridge"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	f := pemFiles{
		cert: filepath.Join(dir, "client.pem"),
		key:  filepath.Join(dir, "client.key"),
		ca:   filepath.Join(dir, "ca.pem"),
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(f.cert, certPEM, 0o600))
	require.NoError(t, os.WriteFile(f.ca, certPEM, 0o600))
	require.NoError(t, os.WriteFile(f.key, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return f
}

func TestLoadTLSConfig(t *testing.T) {
	f := writeSelfSigned(t)

	mutual, err := Config{UseTLS: true, ClientCert: f.cert, ClientKey: f.key, CABundle: f.ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, mutual.Certificates, 1)
	assert.NotNil(t, mutual.RootCAs)

	caOnly, err := Config{UseTLS: true, CABundle: f.ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Empty(t, caOnly.Certificates)
}

func TestLoadTLSConfigErrors(t *testing.T) {
	f := writeSelfSigned(t)
	garbage := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a cert"), 0o600))

	cases := map[string]Config{
		"requires ca_bundle": {UseTLS: true},
		"no certificates":    {UseTLS: true, CABundle: garbage},
		"read ca":            {UseTLS: true, CABundle: filepath.Join(t.TempDir(), "absent.pem")},
		"load cert":          {UseTLS: true, CABundle: f.ca, ClientCert: f.cert},
	}
	for want, cfg := range cases {
		_, err := cfg.LoadTLSConfig()
		if assert.Error(t, err, want) {
			assert.Contains(t, err.Error(), want)
		}
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, "id", opts.ClientID)
}

func TestNewClientOptionsGeneratesClientID(t *testing.T) {
	a, _ := NewClientOptions(Config{Broker: "tcp://localhost:1883"})
	b, _ := NewClientOptions(Config{Broker: "tcp://localhost:1883"})
	assert.Contains(t, a.ClientID, "meshcast-")
	assert.NotEqual(t, a.ClientID, b.ClientID)
}
