/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
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
	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/datastore/mongo"
)

type testCert struct {
	der      []byte
	certFile string
	keyFile  string
}

func writeSelfSigned(t *testing.T, dir, name string) testCert {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: name},
		DNSNames:              []string{name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	c := testCert{
		der:      der,
		certFile: filepath.Join(dir, name+".crt"),
		keyFile:  filepath.Join(dir, name+".key"),
	}
	require.NoError(t, os.WriteFile(c.certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(c.keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return c
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	ca := writeSelfSigned(t, dir, "db.internal")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := mongo.BuildTLSConfig(config.SSLConfig{Enabled: true})
		require.NoError(t, err)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
		assert.False(t, cfg.InsecureSkipVerify)
		assert.Nil(t, cfg.RootCAs)
	})

	t.Run("trust and client certificate", func(t *testing.T) {
		cfg, err := mongo.BuildTLSConfig(config.SSLConfig{
			Enabled:  true,
			CAFile:   ca.certFile,
			CertFile: ca.certFile,
			KeyFile:  ca.keyFile,
		})
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("missing CA file", func(t *testing.T) {
		_, err := mongo.BuildTLSConfig(config.SSLConfig{Enabled: true, CAFile: filepath.Join(dir, "absent.pem")})
		assert.Error(t, err)
	})

	t.Run("CA file without certificates", func(t *testing.T) {
		junk := filepath.Join(dir, "junk.pem")
		require.NoError(t, os.WriteFile(junk, []byte("not pem"), 0o600))
		_, err := mongo.BuildTLSConfig(config.SSLConfig{Enabled: true, CAFile: junk})
		assert.Error(t, err)
	})

	t.Run("hostname verification disabled still checks the chain", func(t *testing.T) {
		cfg, err := mongo.BuildTLSConfig(config.SSLConfig{
			Enabled:                     true,
			DisableHostnameVerification: true,
			CAFile:                      ca.certFile,
		})
		require.NoError(t, err)
		require.True(t, cfg.InsecureSkipVerify)
		require.NotNil(t, cfg.VerifyPeerCertificate)

		assert.NoError(t, cfg.VerifyPeerCertificate([][]byte{ca.der}, nil))

		stranger := writeSelfSigned(t, dir, "stranger")
		assert.Error(t, cfg.VerifyPeerCertificate([][]byte{stranger.der}, nil))
		assert.Error(t, cfg.VerifyPeerCertificate(nil, nil))
	})
}
