// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
)

// newTestCert generates a self-signed certificate for encoding round trips.
func newTestCert(t *testing.T, commonName string) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "GenerateKey() error")

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		SubjectKeyId:          []byte{0x01, 0x02, 0x03, 0x04},
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err, "CreateCertificate() error")

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err, "ParseCertificate() error")
	return cert
}

func TestCertificateOperations(t *testing.T) {
	decoder := x509certs.New()
	testCert := newTestCert(t, "certs-test")

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Decode DER Certificate",
			testFunc: func(t *testing.T) {
				cert, err := decoder.Decode(testCert.Raw)
				require.NoError(t, err, "Decode() error")

				assert.Equal(t, "certs-test", cert.Subject.CommonName, "unexpected CommonName")
			},
		},
		{
			name: "Decode PEM Certificate",
			testFunc: func(t *testing.T) {
				pemData := decoder.EncodePEM(testCert)

				cert, err := decoder.Decode(pemData)
				require.NoError(t, err, "Decode() error")

				assert.True(t, testCert.Equal(cert), "original and decoded certificates are not equal")
			},
		},
		{
			name: "Decode Multiple Certificates",
			testFunc: func(t *testing.T) {
				other := newTestCert(t, "certs-test-second")
				bundle := decoder.EncodeMultiplePEM([]*x509.Certificate{testCert, other})

				certs, err := decoder.DecodeMultiple(bundle)
				require.NoError(t, err, "DecodeMultiple() error")

				require.Len(t, certs, 2, "expected 2 certificates")
				assert.Equal(t, "certs-test", certs[0].Subject.CommonName)
				assert.Equal(t, "certs-test-second", certs[1].Subject.CommonName)
			},
		},
		{
			name: "Decode Multiple DER Certificates",
			testFunc: func(t *testing.T) {
				certs, err := decoder.DecodeMultiple(testCert.Raw)
				require.NoError(t, err, "DecodeMultiple() error")

				assert.Len(t, certs, 1, "expected 1 certificate")
			},
		},
		{
			name: "Decode-Encode-Decode Round Trip",
			testFunc: func(t *testing.T) {
				encodedDER := decoder.EncodeDER(testCert)
				assert.NotEmpty(t, encodedDER, "EncodeDER() returned empty result")

				decodedCert, err := decoder.Decode(encodedDER)
				require.NoError(t, err, "Decode() error")

				assert.True(t, testCert.Equal(decodedCert), "original and decoded certificates are not equal")
			},
		},
		{
			name: "IsPEM Detection",
			testFunc: func(t *testing.T) {
				assert.True(t, decoder.IsPEM(decoder.EncodePEM(testCert)), "expected PEM data to be detected")
				assert.False(t, decoder.IsPEM(testCert.Raw), "expected DER data not to be detected as PEM")
			},
		},
		{
			name: "Decode Invalid Data",
			testFunc: func(t *testing.T) {
				_, err := decoder.Decode([]byte("not a certificate"))
				assert.Error(t, err, "expected error for invalid data")
			},
		},
		{
			name: "Decode Wrong Block Type",
			testFunc: func(t *testing.T) {
				wrongBlock := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{0x01}})

				_, err := decoder.Decode(wrongBlock)
				assert.ErrorIs(t, err, x509certs.ErrInvalidBlockType, "expected ErrInvalidBlockType")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

// TestEncodeBlockFormat pins the artifact format consumed by external
// verification engines: CRLF line endings, a 64-column body, and a trailing
// blank line after the END delimiter.
func TestEncodeBlockFormat(t *testing.T) {
	testCert := newTestCert(t, "artifact-format")

	out := string(x509certs.EncodeBlock("CERTIFICATE", testCert.Raw))

	assert.True(t, strings.HasPrefix(out, "-----BEGIN CERTIFICATE-----\r\n"), "missing BEGIN delimiter")
	assert.True(t, strings.HasSuffix(out, "-----END CERTIFICATE-----\r\n\r\n"), "missing END delimiter with trailing blank line")

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	for i, line := range lines[1 : len(lines)-2] {
		assert.LessOrEqual(t, len(line), 64, "body line %d exceeds 64 columns", i)
		assert.NotContains(t, line, "\n", "body line %d contains a bare LF", i)
	}

	// The artifact must still parse as standard PEM.
	block, _ := pem.Decode([]byte(out))
	require.NotNil(t, block, "artifact did not decode as PEM")
	assert.Equal(t, testCert.Raw, block.Bytes, "artifact body does not round-trip the DER")
}
